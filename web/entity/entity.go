// Package entity defines the request and response shapes of the web layer.
package entity

import (
	"math"
	"strconv"
	"strings"

	"github.com/wanderlust/wanderlust/database/model"
)

// Msg is the JSON body sent to clients that asked for JSON instead of HTML.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj"`
}

type SignupForm struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type LoginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type ImageForm struct {
	URL      string `json:"url" validate:"omitempty,url"`
	Filename string `json:"filename"`
}

// ListingForm is the body of POST /listings and PUT /listings/:id under the
// "listing" key. Nil fields were absent from the request. Numbers travel as
// strings so form posts and JSON bodies validate the same way.
type ListingForm struct {
	Title       *string    `json:"title" validate:"required,min=1"`
	Description *string    `json:"description" validate:"required,min=1"`
	Price       *string    `json:"price" validate:"required,float,ge=0"`
	Location    *string    `json:"location" validate:"required,min=1"`
	Country     *string    `json:"country" validate:"required,min=1"`
	Image       *ImageForm `json:"image"`
}

// ParseNumber reads a numeric form value. Surrounding whitespace is ignored;
// NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Apply copies a validated form onto l. An absent image leaves l.Image as is.
func (f *ListingForm) Apply(l *model.Listing) {
	l.Title = *f.Title
	l.Description = *f.Description
	l.Location = *f.Location
	l.Country = *f.Country
	l.Price, _ = ParseNumber(*f.Price)
	if f.Image != nil {
		l.Image = model.Image{URL: f.Image.URL, Filename: f.Image.Filename}
	}
}

// ReviewForm is the body of POST /listings/:id/reviews under the "review" key.
type ReviewForm struct {
	Comment *string `json:"comment" validate:"required,min=1"`
	Rating  *string `json:"rating" validate:"required,float,integer,ge=1,le=5"`
}

// Review builds the review of a validated form.
func (f *ReviewForm) Review() *model.Review {
	rating, _ := ParseNumber(*f.Rating)
	return &model.Review{Comment: *f.Comment, Rating: int(rating)}
}
