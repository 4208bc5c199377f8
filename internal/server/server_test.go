package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolepush/internal/accounts"
	"rolepush/internal/auth"
	"rolepush/internal/config"
	"rolepush/internal/handlers"
	"rolepush/internal/metrics"
	"rolepush/internal/models"
	"rolepush/internal/notify"
	"rolepush/internal/store"
)

type discardTransport struct{}

func (discardTransport) Send(context.Context, models.PushSubscription, []byte) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m := metrics.New()
	tokens := auth.NewTokenManager("secret", "rolepush", time.Hour)
	h := handlers.NewHandler(handlers.Options{
		Accounts:  accounts.NewService(st, tokens, auth.NewMemoryRevoker(), "rolepush"),
		Notify:    notify.NewService(st, notify.NewDispatcher(notify.NewResolver(st), st, discardTransport{}, m)),
		Sessions:  sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
		APIPrefix: "/api",
		AppEnv:    "testing",
	})
	cfg := config.Config{CORSOrigins: []string{"https://app.example"}}

	srv := httptest.NewServer(Routes(cfg, h, m))
	t.Cleanup(srv.Close)
	return srv, m
}

func get(t *testing.T, url string, header map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestRoutesServeAPIAndShell(t *testing.T) {
	srv, _ := newTestServer(t)

	res, body := get(t, srv.URL+"/api/health", map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "https://app.example", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, body, "ok")

	res, _ = get(t, srv.URL+"/sw.js", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "/", res.Header.Get("Service-Worker-Allowed"))

	res, _ = get(t, srv.URL+"/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = get(t, srv.URL+"/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestMetricsLabelRoutesByPattern(t *testing.T) {
	srv, m := newTestServer(t)

	get(t, srv.URL+"/api/health", nil)
	get(t, srv.URL+"/api/admin/users/42", nil)
	get(t, srv.URL+"/nowhere", nil)

	// the public listener does not expose metrics
	res, _ := get(t, srv.URL+"/metrics", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	private := httptest.NewServer(MetricsRoutes(m))
	t.Cleanup(private.Close)
	res, body := get(t, private.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `route="GET /api/health"`)
	assert.Contains(t, body, `route="unmatched"`)
	assert.NotContains(t, body, "/api/admin/users/42")
}

func TestNewServesMetricsOnlyWhenConfigured(t *testing.T) {
	assert.Nil(t, New(config.Config{Port: "0"}, handlers.NewHandler(handlers.Options{}), metrics.New()).metrics)
	assert.NotNil(t, New(config.Config{Port: "0", MetricsAddr: "127.0.0.1:0"}, handlers.NewHandler(handlers.Options{}), metrics.New()).metrics)
}
