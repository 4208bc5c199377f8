package handlers

import (
	"net/http"

	"rolepush/internal/accounts"
)

// Generate2FAHandler generates a new TOTP secret and QR code
func (h *Handler) Generate2FAHandler(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.accounts.Setup2FA(r.Context(), CurrentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollment)
}

// Enable2FAHandler verifies the TOTP code and enables 2FA
func (h *Handler) Enable2FAHandler(w http.ResponseWriter, r *http.Request) {
	var req accounts.Enable2FAInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.Enable2FA(r.Context(), CurrentUser(r), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "2FA enabled successfully"})
}

// Disable2FAHandler disables 2FA for the caller. A current code is required.
func (h *Handler) Disable2FAHandler(w http.ResponseWriter, r *http.Request) {
	var req accounts.Disable2FAInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.Disable2FA(r.Context(), CurrentUser(r), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "2FA disabled successfully"})
}
