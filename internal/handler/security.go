package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/najiyasheri/pawsome/internal/domain/user"
)

type ctxKey int

const userKey ctxKey = iota

// currentUser returns the authenticated user stored by requireUser.
func currentUser(ctx context.Context) *user.User {
	u, _ := ctx.Value(userKey).(*user.User)
	return u
}

// bearerToken extracts the opaque session token from the Authorization header.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

// requireUser authenticates the request and stores the user in the context.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := h.users.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

// requireAdmin authenticates the request and additionally requires the admin
// flag.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireUser(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r.Context()).Admin {
			writeJSON(w, http.StatusForbidden, errorResponse{
				Code:    http.StatusForbidden,
				Message: "admin access required",
			})
			return
		}
		next(w, r)
	})
}
