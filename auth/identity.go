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

// Package auth resolves the caller of a request: who they are and which
// role they hold. Tokens are HS256 JWTs, passwords are bcrypt hashes.
package auth

import (
	"context"

	"github.com/tomoncle/curriculum/types"
)

// Identity is the authenticated caller. A nil *Identity means no caller.
type Identity struct {
	UserID   int64      `json:"userId"`
	Username string     `json:"username"`
	Role     types.Role `json:"role"`
}

// IsAdmin reports whether the caller holds the admin role. It is false for
// a nil identity.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == types.RoleAdmin
}

// Owns reports whether the caller is the owner with the given user id.
func (i *Identity) Owns(ownerID int64) bool {
	return i != nil && i.UserID == ownerID
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}
