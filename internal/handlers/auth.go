package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/middleware"
	"github.com/crucial707/trade-tracker/internal/models"
)

// UserStore is the persistence the auth endpoints need. Both the Postgres
// user repo and the memory store implement it.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, role models.Role) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUser(ctx context.Context, id int) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, id int, role models.Role) (models.User, error)
}

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users  UserStore
	Secret []byte
	TTL    time.Duration
}

// ==========================
// Register (always technician; stored as bcrypt hash)
// Higher roles are granted by a superintendent via PUT /users/{id}/role.
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required,min=3,max=64"`
		Password string `json:"password" validate:"required,min=8,max=72"`
		Role     string `json:"role" validate:"omitempty,oneof=technician foreman superintendent"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}
	if role := models.Role(input.Role); role != "" && role != models.RoleTechnician {
		WriteError(w, r, apperr.Forbidden("new accounts are technicians; ask a superintendent for a role change"))
		return
	}

	role := models.RoleTechnician
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		WriteError(w, r, apperr.Internal(err))
		return
	}

	user, err := h.Users.CreateUser(r.Context(), strings.TrimSpace(input.Username), string(hash), role)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// Login (username and password verified against the bcrypt hash)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !decodeBody(w, r, &input, false) {
		return
	}

	user, err := h.Users.GetUserByUsername(r.Context(), strings.TrimSpace(input.Username))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			JSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		WriteError(w, r, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	ttl := h.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	signed, err := middleware.IssueToken(h.Secret, user, ttl)
	if err != nil {
		WriteError(w, r, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      signed,
		"expires_in": int(ttl.Seconds()),
		"user":       user,
	})
}
