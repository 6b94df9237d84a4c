// Package session wraps the gin session with the login identity, flash
// messages and the post-login return address.
package session

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/wanderlust/wanderlust/web/cache"
)

const (
	CookieName = "wanderlust.sid"

	loginUserId   = "LOGIN_USER_ID"
	loginUsername = "LOGIN_USERNAME"
	returnTo      = "RETURN_TO"

	FlashSuccess = "success"
	FlashError   = "error"
)

// SetLoginUser binds the user to the session and moves it to a new id, so a
// cookie handed out before login never becomes a logged in one.
func SetLoginUser(c *gin.Context, id, username string) error {
	s := sessions.Default(c)
	s.Set(cache.RegenerateKey, true)
	s.Set(loginUserId, id)
	s.Set(loginUsername, username)
	return s.Save()
}

// GetLoginUserId returns the id of the logged in user, or "".
func GetLoginUserId(c *gin.Context) string {
	id, _ := sessions.Default(c).Get(loginUserId).(string)
	return id
}

func GetLoginUsername(c *gin.Context) string {
	name, _ := sessions.Default(c).Get(loginUsername).(string)
	return name
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUserId(c) != ""
}

// ClearLogin removes the login identity but keeps the session, so a flash
// added afterwards still reaches the next page. Calling it without a login
// is a no-op.
func ClearLogin(c *gin.Context) error {
	s := sessions.Default(c)
	s.Delete(loginUserId)
	s.Delete(loginUsername)
	s.Delete(returnTo)
	return s.Save()
}

// Flash queues a one-shot message shown on the next rendered page.
func Flash(c *gin.Context, kind, msg string) error {
	s := sessions.Default(c)
	s.AddFlash(msg, kind)
	return s.Save()
}

// TakeFlashes returns and removes the queued messages of one kind.
func TakeFlashes(c *gin.Context, kind string) []string {
	s := sessions.Default(c)
	raw := s.Flashes(kind)
	if len(raw) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// SetReturnTo remembers where to send the user after logging in.
func SetReturnTo(c *gin.Context, url string) {
	sessions.Default(c).Set(returnTo, url)
}

// PopReturnTo returns and forgets the remembered URL.
func PopReturnTo(c *gin.Context) string {
	s := sessions.Default(c)
	url, _ := s.Get(returnTo).(string)
	if url != "" {
		s.Delete(returnTo)
	}
	return url
}

// Save persists pending changes such as consumed flashes.
func Save(c *gin.Context) error {
	return sessions.Default(c).Save()
}
