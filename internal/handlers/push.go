package handlers

import (
	"net/http"

	"rolepush/internal/notify"
)

// VAPIDKeyHandler returns the public VAPID key
func (h *Handler) VAPIDKeyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"vapid_public_key": h.vapidPublicKey,
	})
}

// SubscribePushHandler saves a push subscription for the caller
func (h *Handler) SubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	var req notify.SubscribeInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sub, err := h.notify.Subscribe(r.Context(), CurrentUser(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Subscription saved", "subscription": sub})
}

func (h *Handler) UnsubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	var req notify.UnsubscribeInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.notify.Unsubscribe(r.Context(), CurrentUser(r), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Subscription removed"})
}
