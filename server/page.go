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
	"github.com/tomoncle/curriculum/types"
)

// pageQuery holds the optional paging parameters of a listing. Without
// page or pageSize a listing answers with the plain array.
type pageQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Sort     string `form:"sort"`
}

func (q pageQuery) requested(c *gin.Context) bool {
	return c.Query("page") != "" || c.Query("pageSize") != ""
}

// orders keeps the sort fields found in columns; "-name" sorts descending.
func (q pageQuery) orders(columns ...string) []string {
	return types.ParseOrders(q.Sort, columns...)
}

type pageBody[T any] struct {
	*types.Pagination[T]
	TotalPages int `json:"totalPages"`
}

func newPageBody[T any](p *types.Pagination[T]) pageBody[T] {
	return pageBody[T]{Pagination: p, TotalPages: p.TotalPages()}
}
