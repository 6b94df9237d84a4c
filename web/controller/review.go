package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/wanderlust/wanderlust/web/service"
	"github.com/wanderlust/wanderlust/web/session"
)

// ReviewController accepts reviews posted from a listing page.
type ReviewController struct {
	BaseController

	reviewService *service.ReviewService
}

// NewReviewController registers POST /listings/:id/reviews. With
// requireLogin set the route is limited to logged in users.
func NewReviewController(g *gin.RouterGroup, reviewService *service.ReviewService, requireLogin bool) *ReviewController {
	a := &ReviewController{reviewService: reviewService}
	a.initRouter(g, requireLogin)
	return a
}

func (a *ReviewController) initRouter(g *gin.RouterGroup, requireLogin bool) {
	handlers := []gin.HandlerFunc{a.create}
	if requireLogin {
		handlers = append([]gin.HandlerFunc{a.checkLogin}, handlers...)
	}
	g.POST("/listings/:id/reviews", handlers...)
}

func (a *ReviewController) create(c *gin.Context) {
	id := c.Param("id")
	form, err := bindReview(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if _, err := a.reviewService.Create(c.Request.Context(), id, form); err != nil {
		_ = c.Error(err)
		return
	}
	redirectWithFlash(c, session.FlashSuccess, I18nWeb(c, "flash.reviewCreated"), listingPath(id))
}
