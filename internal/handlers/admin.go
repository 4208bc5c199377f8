package handlers

import (
	"net/http"
	"strconv"

	"rolepush/internal/accounts"
)

// === Admin Management ===

func (h *Handler) CreateAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req accounts.CreateAdminInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.accounts.CreateAdmin(r.Context(), CurrentUser(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// the only time the plaintext password leaves the server
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Admin created successfully",
		"admin":    created.Admin,
		"password": created.Password,
	})
}

func (h *Handler) ListAdminsHandler(w http.ResponseWriter, r *http.Request) {
	admins, err := h.accounts.ListAdmins(r.Context(), CurrentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

func (h *Handler) DeleteAdminHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteAdmin(r.Context(), CurrentUser(r), pathID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Admin deleted"})
}

// === User Management ===

func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context(), CurrentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteUser(r.Context(), CurrentUser(r), pathID(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User deleted"})
}

func (h *Handler) UpdateUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	var req accounts.UpdateRoleInput
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.UpdateRole(r.Context(), CurrentUser(r), pathID(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User role updated", "user": user})
}

// AuditLogHandler lists recent admin actions, newest first.
func (h *Handler) AuditLogHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	entries, err := h.accounts.ListAudit(r.Context(), CurrentUser(r), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
