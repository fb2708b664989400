// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. It extracts a JWT from
// the Authorization header, verifies it through the injected TokenVerifier,
// and stashes the authenticated user in the request context so downstream
// handlers and middleware (e.g., per-user rate limiting) can read it.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/titandle/titandle-backend/internal/domain"
)

// Context keys used to stash the authenticated identity.
const (
	ctxKeyCurrentUser = "auth.user"
	ctxKeyUserID      = "userID" // string form, read by rate limiter and logs
)

// TokenVerifier validates a bearer token and resolves it to a user.
// AuthService satisfies it.
type TokenVerifier interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// CurrentUser returns the authenticated user stored in the Gin context by
// RequireAuth. The second return value indicates presence.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ctxKeyCurrentUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// RequireAuth returns middleware that rejects requests lacking a valid
// "Authorization: Bearer <jwt>" header with 401. On success it stores the
// resolved user (CurrentUser) and its id string under "userID".
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "missing bearer token",
			})
			return
		}

		u, err := verifier.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(ctxKeyCurrentUser, u)
		c.Set(ctxKeyUserID, strconv.FormatUint(uint64(u.ID), 10))
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" value.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
