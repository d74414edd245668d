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

// Package respond writes JSON responses and maps service errors to status
// codes.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/tomoncle/curriculum"
	"github.com/tomoncle/curriculum/utils"
)

const RequestIDKey = "requestId"

var log = utils.NewLogger("HTTP")

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

func Created(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusCreated, payload)
}

// Error aborts the request with a standard error body.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message, Details: details},
	})
}

// BadRequest reports a request that could not be decoded.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "bad_request", message, nil)
}

// FromError maps err to its status code. Invalid input is 422; anything
// unclassified is a 500 whose cause stays in the log.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, curriculum.ErrNotFound):
		Error(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, curriculum.ErrUnauthorized):
		Error(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case errors.Is(err, curriculum.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, curriculum.ErrInvalidInput):
		Error(c, http.StatusUnprocessableEntity, "invalid_input", err.Error(), nil)
	default:
		log.WithError(err).WithFields(map[string]interface{}{
			"request_id": c.GetString(RequestIDKey),
			"req_method": c.Request.Method,
			"req_uri":    c.Request.URL.Path,
		}).Errorf("request failed: %+v", err)
		Error(c, http.StatusInternalServerError, "internal", "unexpected server error", nil)
	}
}
