package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crucial707/trade-tracker/internal/access"
	"github.com/crucial707/trade-tracker/internal/models"
)

type key string

const (
	UserIDKey key = "user_id"
	RoleKey   key = "role"
)

// Claims is the token payload. Role travels in the token so the access
// policy can run without a user lookup per request.
type Claims struct {
	UserID   int         `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for u that expires after ttl.
func IssueToken(secret []byte, u models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies tokenStr and returns its claims.
func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func JWTMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization header")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := ParseToken(secret, tokenStr)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			role := claims.Role
			if !role.Valid() {
				role = models.RoleTechnician
			}
			noteCaller(r.Context(), claims.UserID)
			ctx := WithCaller(r.Context(), access.Caller{ID: claims.UserID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFrom returns the identity the JWT middleware stored on ctx, or the
// zero Caller when the request was not authenticated.
func CallerFrom(ctx context.Context) access.Caller {
	id, _ := ctx.Value(UserIDKey).(int)
	role, _ := ctx.Value(RoleKey).(models.Role)
	return access.Caller{ID: id, Role: role}
}

// WithCaller stores c on ctx the way the JWT middleware does.
func WithCaller(ctx context.Context, c access.Caller) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, c.ID)
	return context.WithValue(ctx, RoleKey, c.Role)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "kind": "unauthorized"})
}
