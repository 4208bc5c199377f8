package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rolepush/internal/config"
	"rolepush/internal/handlers"
	"rolepush/internal/metrics"
	"rolepush/internal/middleware"
	"rolepush/web"
)

// Server wraps the public http.Server and, when configured, the private
// metrics listener.
type Server struct {
	inner   *http.Server
	metrics *http.Server
}

// Routes builds the public handler: API under the prefix and the PWA shell
// at the root.
func Routes(cfg config.Config, h *handlers.Handler, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	web.Register(mux, cfg.APIPrefix)

	return middleware.Recovery(
		middleware.CORS(cfg.CORSOrigins,
			middleware.Logging(
				middleware.Metrics(m, mux))))
}

// MetricsRoutes serves /metrics; it is never mounted on the public mux.
func MetricsRoutes(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	return mux
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, h *handlers.Handler, m *metrics.Metrics) *Server {
	s := &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Routes(cfg, h, m),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// fan-out to many devices runs inside the request
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}}
	if cfg.MetricsAddr != "" {
		s.metrics = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           MetricsRoutes(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return s
}

// Start begins serving HTTP traffic. It blocks on the public listener.
func (s *Server) Start() error {
	if s.metrics != nil {
		go func() {
			slog.Info("metrics listening", "addr", s.metrics.Addr)
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.inner.Shutdown(ctx)
	if s.metrics != nil {
		err = errors.Join(err, s.metrics.Shutdown(ctx))
	}
	return err
}
