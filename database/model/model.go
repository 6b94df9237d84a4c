// Package model contains the records persisted by the Wanderlust stores.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Image points at an externally hosted picture of a listing. Both fields may be empty.
type Image struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Listing is a rentable property owned by exactly one user.
type Listing struct {
	Id          string    `json:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	Image       Image     `json:"image" gorm:"embedded;embeddedPrefix:image_"`
	Price       float64   `json:"price" gorm:"not null;check:price >= 0"`
	Location    string    `json:"location" gorm:"not null"`
	Country     string    `json:"country" gorm:"not null"`
	OwnerId     string    `json:"ownerId" gorm:"size:36;index;not null"`
	Owner       *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerId"`
	Reviews     []*Review `json:"reviews,omitempty" gorm:"foreignKey:ListingId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.Id == "" {
		l.Id = uuid.NewString()
	}
	return nil
}

// IsOwnedBy reports whether userId owns the listing.
func (l *Listing) IsOwnedBy(userId string) bool {
	return userId != "" && l.OwnerId == userId
}

// Review is append-only. Position keeps the order in which reviews were
// attached to their listing.
type Review struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	Comment   string    `json:"comment" gorm:"not null"`
	Rating    int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	ListingId string    `json:"listingId" gorm:"size:36;index"`
	Position  int       `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.Id == "" {
		r.Id = uuid.NewString()
	}
	return nil
}

// Session is the server-side half of a login session. Data holds the
// encoded session values; ExpiresAt is fixed when the session is created.
type Session struct {
	Id        string    `gorm:"primaryKey;size:64"`
	Data      []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
