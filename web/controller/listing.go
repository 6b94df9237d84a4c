package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/web/service"
	"github.com/wanderlust/wanderlust/web/session"
)

// ListingController serves the listing pages and their mutations.
type ListingController struct {
	BaseController

	listingService *service.ListingService
}

// NewListingController creates a new ListingController and initializes its routes.
func NewListingController(g *gin.RouterGroup, listingService *service.ListingService) *ListingController {
	a := &ListingController{listingService: listingService}
	a.initRouter(g)
	return a
}

func (a *ListingController) initRouter(g *gin.RouterGroup) {
	g = g.Group("/listings")

	g.GET("", a.index)
	g.GET("/new", a.checkLogin, a.newForm)
	g.POST("", a.checkLogin, a.create)
	g.GET("/:id", a.show)
	g.GET("/:id/edit", a.checkLogin, a.editForm)
	g.PUT("/:id", a.checkLogin, a.update)
	g.DELETE("/:id", a.checkLogin, a.delete)
}

func (a *ListingController) index(c *gin.Context) {
	listings, err := a.listingService.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	html(c, http.StatusOK, "listings/index", I18nWeb(c, "pages.listings.index"), gin.H{
		"allListings": listings,
	})
}

func (a *ListingController) newForm(c *gin.Context) {
	html(c, http.StatusOK, "listings/new", I18nWeb(c, "pages.listings.new"), nil)
}

func (a *ListingController) create(c *gin.Context) {
	form, err := bindListing(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	listing, err := a.listingService.Create(c.Request.Context(), session.GetLoginUserId(c), form)
	if err != nil {
		_ = c.Error(err)
		return
	}
	logger.Infof("listing %s created by %s", listing.Id, session.GetLoginUsername(c))
	redirectWithFlash(c, session.FlashSuccess, I18nWeb(c, "flash.listingCreated"), "/listings")
}

func (a *ListingController) show(c *gin.Context) {
	listing, err := a.listingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	html(c, http.StatusOK, "listings/show", I18nWeb(c, "pages.listings.show", "Title=="+listing.Title), gin.H{
		"listing": listing,
		"isOwner": listing.IsOwnedBy(session.GetLoginUserId(c)),
	})
}

func (a *ListingController) editForm(c *gin.Context) {
	listing, err := a.listingService.GetOwned(c.Request.Context(), c.Param("id"), session.GetLoginUserId(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	html(c, http.StatusOK, "listings/edit", I18nWeb(c, "pages.listings.edit"), gin.H{
		"listing": listing,
	})
}

func (a *ListingController) update(c *gin.Context) {
	id := c.Param("id")
	form, err := bindListing(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if _, err := a.listingService.Update(c.Request.Context(), id, session.GetLoginUserId(c), form); err != nil {
		_ = c.Error(err)
		return
	}
	redirectWithFlash(c, session.FlashSuccess, I18nWeb(c, "flash.listingUpdated"), listingPath(id))
}

func (a *ListingController) delete(c *gin.Context) {
	if err := a.listingService.Delete(c.Request.Context(), c.Param("id"), session.GetLoginUserId(c)); err != nil {
		_ = c.Error(err)
		return
	}
	redirectWithFlash(c, session.FlashSuccess, I18nWeb(c, "flash.listingDeleted"), "/listings")
}
