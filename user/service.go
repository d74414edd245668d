/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package user manages accounts: registration, login and lookup.
package user

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/curriculum"
	"github.com/tomoncle/curriculum/auth"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/types"
	"github.com/tomoncle/curriculum/utils"
	"github.com/uptrace/bun"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 64
	minPasswordLen = 6
)

// RegisterInput is the body of a registration.
type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is a signed access token and the account it belongs to.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type Service struct {
	store  *curriculum.Service[User, *User]
	tokens *auth.TokenManager
	log    *logrus.Logger
}

func NewService(db bun.IDB, tokens *auth.TokenManager) *Service {
	return &Service{
		store:  curriculum.NewService[User](db),
		tokens: tokens,
		log:    utils.NewLogger("USER"),
	}
}

// Register creates an account with the user role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	return s.create(ctx, in, types.RoleUser)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role types.Role) (*User, error) {
	username := strings.TrimSpace(in.Username)
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, errors.Wrapf(curriculum.ErrInvalidInput, "username must be %d to %d characters", minUsernameLen, maxUsernameLen)
	}
	if len(in.Password) < minPasswordLen {
		return nil, errors.Wrapf(curriculum.ErrInvalidInput, "password must be at least %d characters", minPasswordLen)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(curriculum.ErrInvalidInput, err.Error())
	}

	u := &User{
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if _, err := s.store.Create(ctx, u); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, errors.Wrapf(curriculum.ErrInvalidInput, "username %q is taken", username)
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": role}).Info("account registered")
	return u, nil
}

// Login checks the credentials and returns a signed token. Unknown users
// and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.FindByUsername(ctx, username)
	if errors.Is(err, curriculum.ErrNotFound) {
		return nil, errors.Wrap(curriculum.ErrUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		s.log.WithField("user_id", u.ID).Warn("wrong password")
		return nil, errors.Wrap(curriculum.ErrUnauthorized, "invalid credentials")
	}
	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: u}, nil
}

// FindOne returns the live account with the given id.
func (s *Service) FindOne(ctx context.Context, id int64) (*User, error) {
	return s.store.FindOne(ctx, id)
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	users, err := s.store.List(ctx, types.NewQueryFilter("u.username = ?", strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errors.Wrapf(curriculum.ErrNotFound, "user %q", username)
	}
	return users[0], nil
}

// Page lists accounts for administrators.
func (s *Service) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[User], error) {
	return s.store.Page(ctx, req)
}

// EnsureAdmin creates the bootstrap administrator, or promotes the existing
// account of that name. The password of an existing account is left alone.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (*User, error) {
	u, err := s.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, curriculum.ErrNotFound):
		return s.create(ctx, RegisterInput{Username: username, Password: password}, types.RoleAdmin)
	case err != nil:
		return nil, err
	case u.Role == types.RoleAdmin:
		return u, nil
	}
	promoted, err := s.store.Update(ctx, u.ID, curriculum.PatchFunc[User](func(u *User) {
		u.Role = types.RoleAdmin
	}))
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", promoted.ID).Info("account promoted to admin")
	return promoted, nil
}
