package handlers

import (
	"fmt"
	"net/http"

	"rolepush/internal/notify"
)

func (h *Handler) SendToUserHandler(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, notify.SingleUser(pathID(r)), "user")
}

func (h *Handler) SendToAllUsersHandler(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, notify.AllUsers(), "users")
}

func (h *Handler) SendToAllAdminsHandler(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, notify.AllAdmins(), "admins")
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request, sel notify.Selector, noun string) {
	var req notify.SendInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.notify.Send(r.Context(), CurrentUser(r), sel, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	msg := "Notification sent"
	if sel.Kind() != notify.KindSingleUser {
		msg = fmt.Sprintf("Notification sent to %d %s", res.Recipients, noun)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    msg,
		"recipients": res.Recipients,
		"devices":    res.Devices,
		"failed":     res.Failed,
	})
}

func (h *Handler) SubscribersHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.notify.Subscribers(r.Context(), CurrentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscribers": records})
}
