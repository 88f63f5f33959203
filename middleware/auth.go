package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
)

// UserKey is the gin context key holding the authenticated models.User.
const UserKey = "user"

type UserLookup interface {
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth resolves the Bearer token to a user. Missing or unknown tokens
// are rejected as errs.Unauthorized.
func RequireAuth(users UserLookup, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			RespondError(c, logger, errs.New(errs.Unauthorized, "missing authorization header"))
			return
		}

		user, err := users.GetUserByToken(c.Request.Context(), token)
		if err != nil {
			if errs.Is(err, errs.NotFound) {
				err = errs.Wrap(errs.Unauthorized, "unknown token", err)
			}
			RespondError(c, logger, err)
			return
		}

		c.Set(UserKey, *user)
		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}
