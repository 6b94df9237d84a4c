package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/util/common"
	"github.com/wanderlust/wanderlust/web/entity"
	"github.com/wanderlust/wanderlust/web/service"
	"github.com/wanderlust/wanderlust/web/session"
)

// UserController handles signup, login and logout.
type UserController struct {
	BaseController

	userService *service.UserService
}

// NewUserController registers the account routes. The limiter guards the
// credential POSTs and may be nil.
func NewUserController(g *gin.RouterGroup, userService *service.UserService, limiter gin.HandlerFunc) *UserController {
	a := &UserController{userService: userService}
	a.initRouter(g, limiter)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup, limiter gin.HandlerFunc) {
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{limiter, h}
	}

	g.GET("/signup", a.signupForm)
	g.POST("/signup", guarded(a.signup)...)
	g.GET("/login", a.loginForm)
	g.POST("/login", guarded(a.login)...)
	g.POST("/logout", a.checkLogin, a.logout)
}

func (a *UserController) signupForm(c *gin.Context) {
	html(c, http.StatusOK, "users/signup", I18nWeb(c, "pages.users.signup"), nil)
}

// signup creates the account. Failures are flashed back onto the form and
// success sends the user to log in.
func (a *UserController) signup(c *gin.Context) {
	var form entity.SignupForm
	if err := bindCredentials(c, &form); err != nil {
		redirectWithFlash(c, session.FlashError, err.Error(), "/signup")
		return
	}

	user, err := a.userService.Register(c.Request.Context(), form.Username, form.Email, form.Password)
	if err != nil {
		logger.Infof("signup of %q failed: %v", strings.TrimSpace(form.Username), err)
		redirectWithFlash(c, session.FlashError, common.PublicMessage(err), "/signup")
		return
	}

	logger.Infof("%s signed up, IP: %s", user.Username, getRemoteIp(c))
	redirectWithFlash(c, session.FlashSuccess, I18nWeb(c, "flash.signedUp"), "/login")
}

func (a *UserController) loginForm(c *gin.Context) {
	html(c, http.StatusOK, "users/login", I18nWeb(c, "pages.users.login"), nil)
}

func (a *UserController) login(c *gin.Context) {
	var form entity.LoginForm
	if err := bindCredentials(c, &form); err != nil {
		redirectWithFlash(c, session.FlashError, err.Error(), "/login")
		return
	}

	user, err := a.userService.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		logger.Warningf("failed login for %q, IP: %s", form.Username, getRemoteIp(c))
		redirectWithFlash(c, session.FlashError, common.PublicMessage(err), "/login")
		return
	}

	target := session.PopReturnTo(c)
	if !isLocalPath(target) {
		target = "/listings"
	}
	if err := session.SetLoginUser(c, user.Id, user.Username); err != nil {
		_ = c.Error(err)
		return
	}

	logger.Infof("%s logged in successfully, IP: %s", user.Username, getRemoteIp(c))
	redirectWithFlash(c, session.FlashSuccess, I18nWeb(c, "flash.loggedIn"), target)
}

func (a *UserController) logout(c *gin.Context) {
	username := session.GetLoginUsername(c)
	if err := session.ClearLogin(c); err != nil {
		logger.Warning("Unable to save session after clearing:", err)
	}
	logger.Infof("%s logged out successfully", username)
	redirectWithFlash(c, session.FlashSuccess, I18nWeb(c, "flash.loggedOut"), "/listings")
}

// isLocalPath keeps the post-login redirect on this site.
func isLocalPath(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\")
}
