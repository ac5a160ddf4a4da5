package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/marketplace/internal/actorctx"
	"github.com/geocoder89/marketplace/internal/domain/user"
)

const MsgActionNotAllowed = "Action not allowed"

// TokenResolver is the credential store lookup the gate needs.
type TokenResolver interface {
	FindByToken(ctx context.Context, token string) (user.User, error)
}

type AuthMiddleware struct {
	users TokenResolver
	log   *slog.Logger
}

func NewAuthMiddleware(users TokenResolver, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &AuthMiddleware{users: users, log: log}
}

// RequireAuth resolves "Authorization: Bearer <token>" to a user or stops with 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", MsgActionNotAllowed)
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if raw == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", MsgActionNotAllowed)
			return
		}

		u, err := m.users.FindByToken(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abortJSON(c, http.StatusUnauthorized, "unauthorized", MsgActionNotAllowed)
				return
			}

			m.log.ErrorContext(c.Request.Context(), "token lookup failed", "err", err)
			abortJSON(c, http.StatusInternalServerError, "internal_error", "Could not authenticate request")
			return
		}

		c.Set(CtxUser, u)
		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))

		c.Next()
	}
}

// Helpers so handlers don't need to know the keys.

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)

	return u, ok && u.ID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	u, ok := UserFromContext(c)
	return u.ID, ok
}
