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

package server

import (
	"github.com/gin-gonic/gin"
	"github.com/tomoncle/curriculum/server/middleware"
	"github.com/tomoncle/curriculum/server/respond"
	"github.com/tomoncle/curriculum/types"
	"github.com/tomoncle/curriculum/user"
)

type userHandler struct {
	users *user.Service
}

func (h *userHandler) register(api *gin.RouterGroup) {
	g := api.Group("/auth")
	g.POST("/register", h.signup)
	g.POST("/login", h.login)

	api.GET("/users", middleware.RequireAdmin(), h.list)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *userHandler) signup(c *gin.Context) {
	var in user.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, u)
}

func (h *userHandler) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	res, err := h.users.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, res)
}

// list pages through the accounts. Administrators only.
func (h *userHandler) list(c *gin.Context) {
	var pq pageQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	req := types.NewPageRequest(pq.Page, pq.PageSize, nil, pq.orders("id", "username"))
	page, err := h.users.Page(c.Request.Context(), req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, newPageBody(page))
}
