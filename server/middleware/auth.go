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

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tomoncle/curriculum/auth"
	"github.com/tomoncle/curriculum/server/respond"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Identity, error)
}

// Authenticate resolves the bearer token, when one is sent, into an
// identity on the request context. A malformed or invalid token is
// rejected; a missing one leaves the request anonymous.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		id, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// Caller returns the identity resolved by Authenticate, or nil.
func Caller(c *gin.Context) *auth.Identity {
	return auth.FromContext(c.Request.Context())
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Caller(c) == nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
			return
		}
		c.Next()
	}
}

// RequireAdmin lets administrators through only.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Caller(c)
		switch {
		case id == nil:
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		case !id.IsAdmin():
			respond.Error(c, http.StatusForbidden, "forbidden", "admin role required", nil)
		default:
			c.Next()
		}
	}
}
