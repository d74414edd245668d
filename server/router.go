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

// Package server exposes the users and CV services over HTTP with gin.
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomoncle/curriculum/cv"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/server/middleware"
	"github.com/tomoncle/curriculum/server/respond"
	"github.com/tomoncle/curriculum/storage"
	"github.com/tomoncle/curriculum/user"
	"github.com/tomoncle/curriculum/utils"
)

const APIPrefix = "/api/v2"

// HealthChecker reports the state of the database.
type HealthChecker interface {
	GetHealthStatus(ctx context.Context) *database.HealthStatus
}

type Options struct {
	Users         *user.Service
	CVs           *cv.Service
	Tokens        middleware.TokenParser
	Health        HealthChecker
	MaxUploadSize int64
	// LocalUploads, when set, serves the local storage directory under its
	// base URL.
	LocalUploads *storage.LocalConfig
}

// NewRouter builds the gin engine with middleware and routes registered.
func NewRouter(opts Options) *gin.Engine {
	log := utils.NewLogger("HTTP")

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.Recovery(log),
		middleware.Metrics(),
	)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if lu := opts.LocalUploads; lu != nil && strings.HasPrefix(lu.BaseURL, "/") && lu.Dir != "" {
		r.Static(lu.BaseURL, lu.Dir)
	}

	api := r.Group(APIPrefix, middleware.Authenticate(opts.Tokens))
	api.GET("/health", healthHandler(opts.Health))

	users := &userHandler{users: opts.Users}
	users.register(api)

	cvs := &cvHandler{cvs: opts.CVs, maxUploadSize: opts.MaxUploadSize}
	cvs.register(api)

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})
	return r
}

func healthHandler(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health == nil {
			respond.OK(c, gin.H{"status": "ok"})
			return
		}
		status := health.GetHealthStatus(c.Request.Context())
		if !status.Healthy {
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": status})
			return
		}
		respond.OK(c, gin.H{"status": "ok", "database": status})
	}
}
