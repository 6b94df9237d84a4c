// Package service implements the operations behind the HTTP routes. Every
// service receives its persistence handle explicitly.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wanderlust/wanderlust/caching"
	"github.com/wanderlust/wanderlust/database"
	"github.com/wanderlust/wanderlust/database/model"
	"github.com/wanderlust/wanderlust/logger"
	"github.com/wanderlust/wanderlust/util/common"
	"github.com/wanderlust/wanderlust/util/crypto"
)

const (
	msgNoUsername        = "No username was given"
	msgNoEmail           = "No email was given"
	msgNoPassword        = "No password was given"
	msgUsernameTaken     = "A user with the given username is already registered"
	msgEmailTaken        = "A user with the given email is already registered"
	msgMissingCredential = "Missing credentials"
	msgBadCredentials    = "Password or username is incorrect"
)

type UserService struct {
	users      database.UserRepository
	cache      *caching.Cache
	bcryptCost int
}

func NewUserService(users database.UserRepository, cache *caching.Cache, bcryptCost int) *UserService {
	if cache == nil {
		cache = caching.NewCache(caching.DefaultExpiration)
	}
	return &UserService{users: users, cache: cache, bcryptCost: bcryptCost}
}

// Register creates an account. Empty fields and taken usernames or emails
// are reported as ValidationError.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return nil, common.NewValidationError(msgNoUsername)
	case email == "":
		return nil, common.NewValidationError(msgNoEmail)
	case password == "":
		return nil, common.NewValidationError(msgNoPassword)
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, common.NewValidationError(msgUsernameTaken)
	} else if !database.IsNotFound(err) {
		return nil, common.NewUnexpectedError(err)
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, common.NewValidationError(msgEmailTaken)
	} else if !database.IsNotFound(err) {
		return nil, common.NewUnexpectedError(err)
	}

	hash, err := crypto.HashPasswordAsBcrypt(password, s.bcryptCost)
	if err != nil {
		return nil, common.NewUnexpectedError(fmt.Errorf("hash password: %w", err))
	}

	user := &model.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		var dup *database.DuplicateError
		if errors.As(err, &dup) {
			if dup.Field == "email" {
				return nil, common.NewValidationError(msgEmailTaken)
			}
			return nil, common.NewValidationError(msgUsernameTaken)
		}
		return nil, common.NewUnexpectedError(err)
	}
	logger.Infof("registered user %s", user.Username)
	s.cache.SetUser(user)
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords get
// the same AuthError.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, common.NewAuthError(msgMissingCredential)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if database.IsNotFound(err) {
		return nil, common.NewAuthError(msgBadCredentials)
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil, common.NewUnexpectedError(err)
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, password) {
		return nil, common.NewAuthError(msgBadCredentials)
	}
	s.cache.SetUser(user)
	return user, nil
}

// GetUser resolves a session's user id, consulting the in-process cache first.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if user, ok := s.cache.User(id); ok {
		return user, nil
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetUser(user)
	return user, nil
}
