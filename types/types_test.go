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

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
	assert.Equal(t, 2, role.Number())
	assert.Equal(t, "admin", role.String())

	_, err = ParseRole("root")
	assert.Error(t, err)
	assert.Equal(t, IllegalValue, Role("root").Number())
	assert.Equal(t, IllegalName, Role("root").Name())
	assert.Equal(t, IllegalDesc, Role("root").Desc())
}

func TestRoleScanValue(t *testing.T) {
	var r Role
	require.NoError(t, r.Scan([]byte("user")))
	assert.Equal(t, RoleUser, r)
	require.NoError(t, r.Scan("admin"))
	assert.Equal(t, RoleAdmin, r)
	assert.Error(t, r.Scan(42))

	v, err := RoleAdmin.Value()
	require.NoError(t, err)
	assert.Equal(t, "admin", v)
	_, err = Role("").Value()
	assert.Error(t, err)
}

func TestPageRequestBounds(t *testing.T) {
	p := NewDefaultPageRequest(0, 0)
	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, DefaultPageSize, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())

	p = NewDefaultPageRequest(3, 1000)
	assert.Equal(t, MaxPageSize, p.GetPageSize())
	assert.Equal(t, 200, p.GetOffset())
}

func TestQueryFilterAnd(t *testing.T) {
	var nilFilter *QueryFilter
	a := NewQueryFilter("age = ?", 30)
	assert.Same(t, a, nilFilter.And(a))
	assert.Same(t, a, a.And(nil))

	b := NewQueryFilter("name LIKE ? OR job LIKE ?", "%x%", "%x%")
	joined := a.And(b)
	assert.Equal(t, "(age = ?) AND (name LIKE ? OR job LIKE ?)", joined.Schema)
	assert.Equal(t, []interface{}{30, "%x%", "%x%"}, joined.Args)
	assert.Len(t, a.Args, 1)
}

func TestParseOrders(t *testing.T) {
	orders := ParseOrders("name, -age,password,", "name", "age")
	assert.Equal(t, []string{"name ASC", "age DESC"}, orders)
	assert.Empty(t, ParseOrders("", "name"))
}

func TestPaginationTotalPages(t *testing.T) {
	p := NewDefaultPagination[int](1, 10)
	assert.Equal(t, 0, p.TotalPages())
	p.Total = 21
	assert.Equal(t, 3, p.TotalPages())
}

func TestJsonObject(t *testing.T) {
	obj := JsonObject{"etag": "abc"}
	v, err := obj.Value()
	require.NoError(t, err)

	var scanned JsonObject
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, "abc", scanned["etag"])

	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)
	assert.Error(t, scanned.Scan(3.14))
}

func TestTimestampsTouch(t *testing.T) {
	var ts Timestamps
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.Touch(first)
	assert.Equal(t, first, ts.CreatedAt)

	later := first.Add(time.Hour)
	ts.Touch(later)
	assert.Equal(t, first, ts.CreatedAt)
	assert.Equal(t, later, ts.UpdatedAt)
}
