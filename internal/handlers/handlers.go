// Package handlers exposes the JSON API over net/http.
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"rolepush/internal/accounts"
	"rolepush/internal/auth"
	"rolepush/internal/middleware"
	"rolepush/internal/notify"
)

const (
	sessionName     = "rolepush-session"
	sessionTokenKey = "token"
	maxBodyBytes    = 1 << 20
)

// Options configures a Handler.
type Options struct {
	Accounts       *accounts.Service
	Notify         *notify.Service
	Sessions       *sessions.CookieStore
	APIPrefix      string
	AppEnv         string
	Version        string
	VAPIDPublicKey string
	LoginPerMinute int
}

type Handler struct {
	accounts       *accounts.Service
	notify         *notify.Service
	sessions       *sessions.CookieStore
	prefix         string
	appEnv         string
	version        string
	vapidPublicKey string
	limiter        *middleware.RateLimiter
	started        time.Time
}

func NewHandler(opts Options) *Handler {
	perMinute := opts.LoginPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Handler{
		accounts:       opts.Accounts,
		notify:         opts.Notify,
		sessions:       opts.Sessions,
		prefix:         opts.APIPrefix,
		appEnv:         opts.AppEnv,
		version:        opts.Version,
		vapidPublicKey: opts.VAPIDPublicKey,
		limiter:        middleware.NewRateLimiter(perMinute),
		started:        time.Now(),
	}
}

// Register mounts the API routes under the configured prefix.
func (h *Handler) Register(mux *http.ServeMux) {
	route := func(method, path string, handler http.Handler) {
		mux.Handle(method+" "+h.prefix+path, handler)
	}
	limited := func(fn http.HandlerFunc) http.Handler { return h.limiter.Limit(fn) }
	guarded := func(c auth.Capability, fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(h.requireCapability(c, fn))
	}

	// open
	route("POST", "/register", limited(h.RegisterHandler))
	route("POST", "/login", limited(h.LoginHandler))
	route("GET", "/health", http.HandlerFunc(h.HealthHandler))
	route("GET", "/test", http.HandlerFunc(h.TestHandler))
	route("GET", "/features", http.HandlerFunc(h.FeaturesHandler))
	route("GET", "/vapid-key", http.HandlerFunc(h.VAPIDKeyHandler))

	// any authenticated user
	route("POST", "/logout", h.AuthMiddleware(h.LogoutHandler))
	route("GET", "/user", h.AuthMiddleware(h.CurrentUserHandler))
	route("GET", "/user-info", h.AuthMiddleware(h.UserInfoHandler))
	route("POST", "/user/password", h.AuthMiddleware(h.ChangePasswordHandler))
	route("POST", "/user/2fa/setup", h.AuthMiddleware(h.Generate2FAHandler))
	route("POST", "/user/2fa/enable", h.AuthMiddleware(h.Enable2FAHandler))
	route("POST", "/user/2fa/disable", h.AuthMiddleware(h.Disable2FAHandler))
	route("POST", "/webpush/subscribe", h.AuthMiddleware(h.SubscribePushHandler))
	route("POST", "/webpush/unsubscribe", h.AuthMiddleware(h.UnsubscribePushHandler))

	// super admin; rejected before the body is read, the services check again
	route("POST", "/admin/create", guarded(auth.CanManageAdmins, h.CreateAdminHandler))
	route("GET", "/admin/list", guarded(auth.CanManageAdmins, h.ListAdminsHandler))
	route("DELETE", "/admin/{id}", guarded(auth.CanManageAdmins, h.DeleteAdminHandler))
	route("GET", "/admin/users", guarded(auth.CanManageUsers, h.ListUsersHandler))
	route("DELETE", "/admin/users/{id}", guarded(auth.CanManageUsers, h.DeleteUserHandler))
	route("PATCH", "/admin/users/{id}/role", guarded(auth.CanManageUsers, h.UpdateUserRoleHandler))
	route("GET", "/admin/audit", guarded(auth.CanManageAdmins, h.AuditLogHandler))
	route("POST", "/notifications/send/user/{id}", guarded(auth.CanSendNotifications, h.SendToUserHandler))
	route("POST", "/notifications/send/all-users", guarded(auth.CanSendNotifications, h.SendToAllUsersHandler))
	route("POST", "/notifications/send/all-admins", guarded(auth.CanSendNotifications, h.SendToAllAdminsHandler))
	route("GET", "/notifications/subscribers", guarded(auth.CanSendNotifications, h.SubscribersHandler))
}
