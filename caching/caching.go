// Package caching keeps short-lived in-process copies of records that are
// read on every request.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/wanderlust/wanderlust/database/model"
)

const (
	DefaultExpiration = 5 * time.Minute
	cleanupInterval   = 10 * time.Minute
	userKeyPrefix     = "user:"
)

type Cache struct {
	memoryCache *cache.Cache
}

func NewCache(expiration time.Duration) *Cache {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &Cache{memoryCache: cache.New(expiration, cleanupInterval)}
}

// User returns a copy of the cached user.
func (s *Cache) User(id string) (*model.User, bool) {
	v, ok := s.memoryCache.Get(userKeyPrefix + id)
	if !ok {
		return nil, false
	}
	user := v.(model.User)
	return &user, true
}

func (s *Cache) SetUser(user *model.User) {
	s.memoryCache.SetDefault(userKeyPrefix+user.Id, *user)
}
