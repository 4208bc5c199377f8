package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"rolepush/internal/accounts"
	"rolepush/internal/apierr"
	"rolepush/internal/auth"
	"rolepush/internal/config"
	"rolepush/internal/handlers"
	"rolepush/internal/metrics"
	"rolepush/internal/notify"
	"rolepush/internal/server"
	"rolepush/internal/store"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config) error {
	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer st.Close()
	slog.Info("database ready", "driver", cfg.DatabaseDriver)

	revoker, closeRevoker, err := newRevoker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRevoker()

	vapid := notify.VAPIDConfig{
		Subject:    cfg.VAPIDSubject,
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		TTL:        cfg.PushTTL,
	}
	if vapid.PublicKey == "" {
		vapid.PrivateKey, vapid.PublicKey, err = webpush.GenerateVAPIDKeys()
		if err != nil {
			return fmt.Errorf("generate vapid keys: %w", err)
		}
		// subscriptions made against these keys stop working on restart
		slog.Warn("VAPID keys not configured; generated an ephemeral pair",
			"VAPID_PUBLIC_KEY", vapid.PublicKey, "VAPID_PRIVATE_KEY", vapid.PrivateKey)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	acc := accounts.NewService(st, tokens, revoker, cfg.JWTIssuer)
	if err := seedSuperAdmin(ctx, acc, cfg); err != nil {
		return err
	}

	m := metrics.New()
	transport := notify.NewWebPushTransport(vapid, &http.Client{Timeout: 15 * time.Second})
	dispatcher := notify.NewDispatcher(notify.NewResolver(st), st, transport, m)

	cookies := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.JWTTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	h := handlers.NewHandler(handlers.Options{
		Accounts:       acc,
		Notify:         notify.NewService(st, dispatcher),
		Sessions:       cookies,
		APIPrefix:      cfg.APIPrefix,
		AppEnv:         cfg.AppEnv,
		Version:        Version,
		VAPIDPublicKey: vapid.PublicKey,
		LoginPerMinute: cfg.LoginRatePerMinute,
	})
	srv := server.New(cfg, h, m)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("rolepush listening", "addr", cfg.HTTPAddress(), "env", cfg.AppEnv)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		slog.Error("graceful shutdown error", "error", err)
	}
	return nil
}

// newRevoker uses Redis when REDIS_ADDR is set so logouts survive restarts
// and are shared between instances.
func newRevoker(ctx context.Context, cfg config.Config) (auth.Revoker, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("token revocation kept in memory")
		return auth.NewMemoryRevoker(), func() {}, nil
	}

	r := store.NewRedisRevoker(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := r.Ping(ctx); err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	slog.Info("token revocation backed by redis", "addr", cfg.RedisAddr)
	return r, func() { r.Close() }, nil
}

// seedSuperAdmin creates the configured super admin on first boot. An
// existing account with that email is left untouched.
func seedSuperAdmin(ctx context.Context, acc *accounts.Service, cfg config.Config) error {
	if cfg.SuperAdminEmail == "" || cfg.SuperAdminPassword == "" {
		return nil
	}

	user, created, err := acc.EnsureSuperAdmin(ctx, accounts.SuperAdminInput{
		Name:     cfg.SuperAdminName,
		Email:    cfg.SuperAdminEmail,
		Password: cfg.SuperAdminPassword,
	}, false)
	var apiErr *apierr.Error
	switch {
	case err == nil:
	case errors.As(err, &apiErr) && apiErr.Kind == apierr.KindValidation && user.ID != 0:
		slog.Info("super admin already present", "email", user.Email, "role", user.Role)
		return nil
	default:
		return fmt.Errorf("seed super admin: %w", err)
	}

	if created {
		slog.Info("super admin created", "email", user.Email, "id", user.ID)
	}
	return nil
}
