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
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tomoncle/curriculum/cv"
	"github.com/tomoncle/curriculum/server/middleware"
	"github.com/tomoncle/curriculum/server/respond"
	"github.com/tomoncle/curriculum/storage"
)

// multipartOverhead is allowed on top of the file size for the form
// boundaries and the other fields.
const multipartOverhead = 64 << 10

type cvHandler struct {
	cvs           *cv.Service
	maxUploadSize int64
}

func (h *cvHandler) register(api *gin.RouterGroup) {
	g := api.Group("/cv", middleware.RequireAuth())
	g.GET("", middleware.RequireAdmin(), h.listAll)
	g.GET("/profile", h.profile)
	g.POST("", h.create)
	g.POST("/upload", h.upload)
	g.GET("/:id", h.findOne)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
	g.POST("/:id/restore", middleware.RequireAdmin(), h.restore)
	g.GET("/:id/attachments", h.attachments)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *cvHandler) listAll(c *gin.Context) {
	criteria, err := cv.ParseSearchCriteria(c.Query("criteria"), c.Query("age"))
	if err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	var pq pageQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	caller := middleware.Caller(c)
	if pq.requested(c) {
		page, err := h.cvs.PageAll(c.Request.Context(), caller, criteria, pq.Page, pq.PageSize, pq.orders(cv.SortColumns...))
		if err != nil {
			respond.FromError(c, err)
			return
		}
		respond.OK(c, newPageBody(page))
		return
	}
	items, err := h.cvs.ListAll(c.Request.Context(), caller, criteria)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, items)
}

func (h *cvHandler) profile(c *gin.Context) {
	var pq pageQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	caller := middleware.Caller(c)
	if pq.requested(c) {
		page, err := h.cvs.PageOwn(c.Request.Context(), caller, pq.Page, pq.PageSize, pq.orders(cv.SortColumns...))
		if err != nil {
			respond.FromError(c, err)
			return
		}
		respond.OK(c, newPageBody(page))
		return
	}
	items, err := h.cvs.GetOwn(c.Request.Context(), caller)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, items)
}

func (h *cvHandler) findOne(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.cvs.FindOne(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, item)
}

func (h *cvHandler) create(c *gin.Context) {
	var in cv.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	item, err := h.cvs.Create(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, item)
}

func (h *cvHandler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in cv.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	item, err := h.cvs.Update(c.Request.Context(), middleware.Caller(c), id, in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, item)
}

func (h *cvHandler) remove(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.cvs.Remove(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *cvHandler) restore(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.cvs.Restore(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *cvHandler) attachments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := h.cvs.Attachments(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, items)
}

func (h *cvHandler) upload(c *gin.Context) {
	max := h.maxUploadSize
	if max <= 0 {
		max = storage.DefaultMaxSize
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusUnprocessableEntity, "invalid_input", "file is too large", nil)
			return
		}
		respond.Error(c, http.StatusUnprocessableEntity, "invalid_input", "a file field is required", nil)
		return
	}

	var cvID int64
	if raw := strings.TrimSpace(c.PostForm("cvId")); raw != "" {
		cvID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || cvID < 0 {
			respond.BadRequest(c, "cvId must be a positive integer")
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		respond.FromError(c, err)
		return
	}
	defer f.Close()

	desc, err := h.cvs.UploadAttachment(c.Request.Context(), middleware.Caller(c), cvID, storage.Upload{
		FileName: fh.Filename,
		Size:     fh.Size,
		Reader:   f,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, desc)
}
