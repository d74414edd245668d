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
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/curriculum/server/respond"
)

// Recovery turns a panic into a 500 with the standard error body.
func Recovery(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(logrus.Fields{
					"request_id": RequestIDFromContext(c),
					"req_method": c.Request.Method,
					"req_uri":    c.Request.URL.Path,
					"panic":      rec,
					"stack":      string(debug.Stack()),
				}).Error("panic recovered")
				respond.Error(c, http.StatusInternalServerError, "internal", "unexpected server error", nil)
			}
		}()
		c.Next()
	}
}
