package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rolepush/internal/accounts"
	"rolepush/internal/apierr"
	"rolepush/internal/auth"
	"rolepush/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	claimsKey
)

// CurrentUser returns the user attached by AuthMiddleware.
func CurrentUser(r *http.Request) models.User {
	u, _ := r.Context().Value(userKey).(models.User)
	return u
}

func currentClaims(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return c
}

// requestToken prefers the Authorization header and falls back to the
// session cookie set at login.
func (h *Handler) requestToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if h.sessions == nil {
		return ""
	}
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[sessionTokenKey].(string)
	return token
}

// AuthMiddleware checks that the request carries a valid, unrevoked token
// for an existing user.
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.requestToken(r)
		if token == "" {
			h.writeError(w, r, apierr.Unauthenticated("Unauthenticated."))
			return
		}

		user, claims, err := h.accounts.Authenticate(r.Context(), token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next(w, r.WithContext(ctx))
	})
}

// requireCapability runs after AuthMiddleware.
func (h *Handler) requireCapability(c auth.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.Require(CurrentUser(r), c); err != nil {
			h.writeError(w, r, err)
			return
		}
		next(w, r)
	}
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, token string, maxAge int) {
	if h.sessions == nil {
		return
	}
	session, _ := h.sessions.Get(r, sessionName)
	if token == "" {
		delete(session.Values, sessionTokenKey)
	} else {
		session.Values[sessionTokenKey] = token
	}
	session.Options.MaxAge = maxAge
	if err := session.Save(r, w); err != nil {
		slog.Error("failed to save session", "error", err)
	}
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, sess accounts.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = 1
	}
	h.saveSession(w, r, sess.Token, maxAge)
}

func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req accounts.RegisterInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.startSession(w, r, sess)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    sess.User,
		"token":   sess.Token,
		"message": "User registered successfully",
	})
}

// LoginHandler answers {"requires_2fa": true} when the account needs a code.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req accounts.LoginInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.accounts.Login(r.Context(), req)
	if errors.Is(err, accounts.ErrTwoFactorRequired) {
		writeJSON(w, http.StatusOK, map[string]any{
			"requires_2fa": true,
			"message":      "Two factor code required",
		})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.startSession(w, r, sess)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    sess.User,
		"token":   sess.Token,
		"message": "Logged in successfully",
	})
}

// LogoutHandler revokes the current token and expires the session cookie.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context(), currentClaims(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.saveSession(w, r, "", -1)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}
