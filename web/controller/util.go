package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wanderlust/wanderlust/config"
	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/web/entity"
	"github.com/wanderlust/wanderlust/web/middleware"
	"github.com/wanderlust/wanderlust/web/session"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// pureJsonMsg sends a pure JSON message response with custom status code.
func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, entity.Msg{
		Success: success,
		Msg:     msg,
	})
}

// html renders a template with the queued flashes and the current user.
// Taking the flashes changes the session, so it is saved before the body
// is written.
func html(c *gin.Context, status int, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["success"] = session.TakeFlashes(c, session.FlashSuccess)
	data["error"] = session.TakeFlashes(c, session.FlashError)
	data["currentUser"] = middleware.GetCurrentUser(c)
	data["request_uri"] = c.Request.RequestURI
	if err := session.Save(c); err != nil {
		logger.Warning("Unable to save session:", err)
	}
	c.HTML(status, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver":  config.GetVersion(),
		"app_name": config.GetName(),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

// redirectWithFlash queues msg for the next page and redirects there.
func redirectWithFlash(c *gin.Context, kind, msg, location string) {
	if err := session.Flash(c, kind, msg); err != nil {
		logger.Warning("Unable to save flash:", err)
	}
	c.Redirect(http.StatusFound, location)
}

// isAjax checks if the request is an AJAX request.
func isAjax(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}

// wantsJSON reports whether the client prefers a JSON error body to a page.
func wantsJSON(c *gin.Context) bool {
	return isAjax(c) || c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func listingPath(id string) string {
	return "/listings/" + id
}
