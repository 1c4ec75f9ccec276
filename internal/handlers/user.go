package handlers

import (
	"net/http"

	"github.com/crucial707/trade-tracker/internal/access"
	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/middleware"
	"github.com/crucial707/trade-tracker/internal/models"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Users UserStore
}

// ==========================
// Me returns the authenticated user
// ==========================
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	c := middleware.CallerFrom(r.Context())
	if !c.Authenticated() {
		WriteError(w, r, apperr.Unauthorized("authentication required"))
		return
	}
	user, err := h.Users.GetUser(r.Context(), c.ID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ==========================
// Get User By ID
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}
	user, err := h.Users.GetUser(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ==========================
// List Users (the crew roster)
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// ==========================
// Set Role (superintendents only)
// ==========================
func (h *UserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	if err := access.RequireRole(middleware.CallerFrom(r.Context()), models.RoleSuperintendent); err != nil {
		WriteError(w, r, err)
		return
	}
	id, ok := pathID(w, r, "id", "user")
	if !ok {
		return
	}
	var input struct {
		Role string `json:"role" validate:"required,oneof=technician foreman superintendent"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	user, err := h.Users.SetRole(r.Context(), id, models.Role(input.Role))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
