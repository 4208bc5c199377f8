package handlers

import (
	"net/http"

	"rolepush/internal/accounts"
)

// CurrentUserHandler returns the authenticated user record as-is.
func (h *Handler) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrentUser(r))
}

func (h *Handler) UserInfoHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user":          CurrentUser(r),
		"authenticated": true,
		"features":      []string{},
	})
}

// ChangePasswordHandler changes the caller's password after checking the current one.
func (h *Handler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req accounts.ChangePasswordInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), CurrentUser(r), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated successfully"})
}
