// Package controller provides the HTTP handlers of the Wanderlust web app:
// accounts, listings, reviews and the error page.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/web/locale"
	"github.com/wanderlust/wanderlust/web/session"
)

// BaseController provides common functionality for all controllers, including authentication checks.
type BaseController struct{}

// checkLogin lets authenticated requests through. Anonymous page requests
// are sent to the login form with a flash, and GETs are remembered so the
// user lands back on them after logging in.
func (a *BaseController) checkLogin(c *gin.Context) {
	if session.IsLogin(c) {
		c.Next()
		return
	}

	msg := I18nWeb(c, "flash.loginRequired")
	if isAjax(c) {
		pureJsonMsg(c, http.StatusUnauthorized, false, msg)
		c.Abort()
		return
	}
	if c.Request.Method == http.MethodGet {
		session.SetReturnTo(c, c.Request.RequestURI)
	}
	redirectWithFlash(c, session.FlashError, msg, "/login")
	c.Abort()
}

// I18nWeb retrieves an internationalized message for the web interface based on the current locale.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	msg := locale.I18n(c, name, params...)
	if msg == name {
		logger.Debug("no translation for", name)
	}
	return msg
}
