package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/util/common"
	"github.com/wanderlust/wanderlust/web/entity"
	"github.com/wanderlust/wanderlust/web/session"
)

// ErrorHandler renders the last error a handler recorded with c.Error.
// Nothing is rendered when the handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		renderError(c, last.Err)
	}
}

// Recovery turns a panic into an unexpected error for ErrorHandler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		_ = c.Error(common.NewUnexpectedError(fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	})
}

// NotFound is the handler of unmatched routes.
func NotFound(c *gin.Context) {
	_ = c.Error(common.NewNotFoundError("Page Not Found"))
}

func renderError(c *gin.Context, err error) {
	status := common.StatusCode(err)
	msg := common.PublicMessage(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		logger.Debugf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	if wantsJSON(c) {
		c.AbortWithStatusJSON(status, entity.Msg{Success: false, Msg: msg})
		return
	}

	// Account and ownership failures go back to a page with the message
	// flashed, the rest get the error page.
	var (
		authErr      *common.AuthError
		forbiddenErr *common.ForbiddenError
	)
	switch {
	case errors.As(err, &authErr):
		redirectWithFlash(c, session.FlashError, msg, "/login")
	case errors.As(err, &forbiddenErr):
		location := "/listings"
		if id := c.Param("id"); id != "" {
			location = listingPath(id)
		}
		redirectWithFlash(c, session.FlashError, msg, location)
	default:
		html(c, status, "error", I18nWeb(c, "pages.error"), gin.H{
			"status":  status,
			"message": msg,
		})
	}
	c.Abort()
}
