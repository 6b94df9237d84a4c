package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/wanderlust/wanderlust/database"
	"github.com/wanderlust/wanderlust/database/model"
	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/web/session"
)

const currentUserKey = "currentUser"

type UserLoader interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// CurrentUser resolves the session's user once per request. A session that
// points at a user who no longer exists is logged out.
func CurrentUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := session.GetLoginUserId(c); id != "" {
			user, err := users.GetUser(c.Request.Context(), id)
			switch {
			case err == nil:
				c.Set(currentUserKey, user)
			case database.IsNotFound(err):
				logger.Infof("dropping session of unknown user %s", id)
				if err := session.ClearLogin(c); err != nil {
					logger.Warning("Unable to save session after clearing:", err)
				}
			default:
				logger.Warning("load current user:", err)
			}
		}
		c.Next()
	}
}

// GetCurrentUser returns the user resolved by CurrentUser, or nil.
func GetCurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}
