package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolepush/internal/apierr"
	"rolepush/internal/models"
	"rolepush/internal/store"
)

type sent struct {
	endpoint string
	payload  string
}

// fakeTransport records sends and fails endpoints listed in errs.
type fakeTransport struct {
	mu   sync.Mutex
	sent []sent
	errs map[string]error
}

func (f *fakeTransport) Send(_ context.Context, sub models.PushSubscription, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{endpoint: sub.Endpoint, payload: string(payload)})
	return f.errs[sub.Endpoint]
}

type countingRecorder struct {
	results   map[string]int
	selectors []string
}

func (c *countingRecorder) PushSent(result string) {
	if c.results == nil {
		c.results = map[string]int{}
	}
	c.results[result]++
}

func (c *countingRecorder) NotificationSent(selector string) {
	c.selectors = append(c.selectors, selector)
}

type env struct {
	store     *store.SQLStore
	transport *fakeTransport
	recorder  *countingRecorder
	svc       *Service
	root      models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st, err := store.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e := &env{store: st, transport: &fakeTransport{errs: map[string]error{}}, recorder: &countingRecorder{}}
	d := NewDispatcher(NewResolver(st), st, e.transport, e.recorder)
	e.svc = NewService(st, d)
	e.root = e.user(t, "root@x.com", models.RoleSuperAdmin)
	return e
}

func (e *env) user(t *testing.T, email string, role models.Role) models.User {
	t.Helper()
	u, err := e.store.CreateUser(context.Background(), models.User{Name: email, Email: email, PasswordHash: "h", Role: role})
	require.NoError(t, err)
	return u
}

func (e *env) subscribe(t *testing.T, u models.User, endpoint string) {
	t.Helper()
	var in SubscribeInput
	in.Endpoint = endpoint
	in.Keys.P256dh = "p256dh"
	in.Keys.Auth = "auth"
	_, err := e.svc.Subscribe(context.Background(), u, in)
	require.NoError(t, err)
}

func TestPair(t *testing.T) {
	ann := models.User{ID: 1}
	bob := models.User{ID: 2}
	subs := []models.PushSubscription{
		{ID: 10, UserID: 2, Endpoint: "b1"},
		{ID: 11, UserID: 1, Endpoint: "a1"},
		{ID: 12, UserID: 1, Endpoint: "a2"},
		{ID: 13, UserID: 3, Endpoint: "stranger"},
	}

	got := Pair([]models.User{ann, bob, ann}, subs)
	var endpoints []string
	for _, d := range got {
		endpoints = append(endpoints, d.Subscription.Endpoint)
	}
	assert.Equal(t, []string{"a1", "a2", "b1"}, endpoints)
	assert.Empty(t, Pair(nil, subs))
	assert.Empty(t, Pair([]models.User{ann}, nil))
}

func TestSelectorString(t *testing.T) {
	assert.Equal(t, "user", SingleUser(4).String())
	assert.Equal(t, int64(4), SingleUser(4).UserID())
	assert.Equal(t, "all_users", AllUsers().String())
	assert.Equal(t, "all_admins", AllAdmins().String())
}

func TestSendToUserCountsDevices(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	ann := e.user(t, "ann@x.com", models.RoleUser)
	e.subscribe(t, ann, "https://push.example/e1")
	e.subscribe(t, ann, "https://push.example/e2")

	res, err := e.svc.Send(ctx, e.root, SingleUser(ann.ID), SendInput{Title: "Hi", Body: "There"})
	require.NoError(t, err)
	assert.Equal(t, Result{Recipients: 1, Devices: 2}, res)
	require.Len(t, e.transport.sent, 2)
	assert.JSONEq(t, `{"title":"Hi","body":"There","url":"/"}`, e.transport.sent[0].payload)
	assert.Equal(t, 2, e.recorder.results["sent"])
	assert.Equal(t, []string{"user"}, e.recorder.selectors)

	entries, err := e.store.ListAudit(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditSendNotification, entries[0].Action)
}

func TestSendSelectors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	ann := e.user(t, "ann@x.com", models.RoleUser)
	bob := e.user(t, "bob@x.com", models.RoleUser)
	admin := e.user(t, "admin@x.com", models.RoleAdmin)
	e.user(t, "quiet@x.com", models.RoleUser)
	e.subscribe(t, ann, "https://push.example/a1")
	e.subscribe(t, ann, "https://push.example/a2")
	e.subscribe(t, bob, "https://push.example/b1")
	e.subscribe(t, admin, "https://push.example/adm")
	e.subscribe(t, e.root, "https://push.example/root")

	res, err := e.svc.Send(ctx, e.root, AllUsers(), SendInput{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Recipients)
	assert.Equal(t, 3, res.Devices)

	e.transport.sent = nil
	res, err = e.svc.Send(ctx, e.root, AllAdmins(), SendInput{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Recipients)
	assert.Equal(t, 2, res.Devices)
	var endpoints []string
	for _, s := range e.transport.sent {
		endpoints = append(endpoints, s.endpoint)
	}
	assert.ElementsMatch(t, []string{"https://push.example/adm", "https://push.example/root"}, endpoints)
}

func TestSendFailuresAreCounted(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	ann := e.user(t, "ann@x.com", models.RoleUser)
	e.subscribe(t, ann, "https://push.example/ok")
	e.subscribe(t, ann, "https://push.example/broken")
	e.subscribe(t, ann, "https://push.example/gone")
	e.transport.errs["https://push.example/broken"] = errors.New("connection reset")
	e.transport.errs["https://push.example/gone"] = ErrSubscriptionGone

	res, err := e.svc.Send(ctx, e.root, SingleUser(ann.ID), SendInput{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, Result{Recipients: 1, Devices: 3, Failed: 2}, res)
	assert.Equal(t, 1, e.recorder.results["gone"])
	assert.Equal(t, 1, e.recorder.results["failed"])

	subs, err := e.store.ListPushSubscriptionsByUsers(ctx, []int64{ann.ID})
	require.NoError(t, err)
	require.Len(t, subs, 2)
	for _, s := range subs {
		assert.NotEqual(t, "https://push.example/gone", s.Endpoint)
	}
}

func TestSendGuardsAndValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	admin := e.user(t, "admin@x.com", models.RoleAdmin)
	ann := e.user(t, "ann@x.com", models.RoleUser)
	e.subscribe(t, ann, "https://push.example/a1")

	for _, sel := range []Selector{SingleUser(ann.ID), AllUsers(), AllAdmins()} {
		_, err := e.svc.Send(ctx, admin, sel, SendInput{Title: "t", Body: "b"})
		require.Error(t, err)
		assert.Equal(t, apierr.KindForbidden, apierr.From(err).Kind)
	}
	assert.Empty(t, e.transport.sent)

	_, err := e.svc.Subscribers(ctx, admin)
	assert.Equal(t, apierr.KindForbidden, apierr.From(err).Kind)

	_, err = e.svc.Send(ctx, e.root, AllUsers(), SendInput{Body: "b", URL: "nope"})
	require.Error(t, err)
	fields := apierr.From(err).Fields
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "url")

	_, err = e.svc.Send(ctx, e.root, SingleUser(9999), SendInput{Title: "t", Body: "b"})
	assert.Equal(t, apierr.KindNotFound, apierr.From(err).Kind)
}

func TestSubscribeUpsertAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	ann := e.user(t, "ann@x.com", models.RoleUser)

	e.subscribe(t, ann, "https://push.example/e1")
	var in SubscribeInput
	in.Endpoint = "https://push.example/e1"
	in.Keys.P256dh = "new-key"
	in.Keys.Auth = "new-auth"
	sub, err := e.svc.Subscribe(ctx, ann, in)
	require.NoError(t, err)
	assert.Equal(t, "new-key", sub.P256dh)

	records, err := e.svc.Subscribers(ctx, e.root)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, ann.ID, records[0].User.ID)

	_, err = e.svc.Subscribe(ctx, ann, SubscribeInput{Endpoint: "https://push.example/e2"})
	require.Error(t, err)
	assert.Contains(t, apierr.From(err).Fields, "keys.p256dh")
	assert.Contains(t, apierr.From(err).Fields, "keys.auth")

	require.NoError(t, e.svc.Unsubscribe(ctx, ann, UnsubscribeInput{Endpoint: "https://push.example/e1"}))
	require.NoError(t, e.svc.Unsubscribe(ctx, ann, UnsubscribeInput{Endpoint: "https://push.example/e1"}))
	require.NoError(t, e.svc.Unsubscribe(ctx, ann, UnsubscribeInput{Endpoint: "https://push.example/never"}))

	records, err = e.svc.Subscribers(ctx, e.root)
	require.NoError(t, err)
	assert.Empty(t, records)
}
