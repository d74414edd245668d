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

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/curriculum/auth"
	"github.com/tomoncle/curriculum/cv"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/database/dbtest"
	"github.com/tomoncle/curriculum/server"
	"github.com/tomoncle/curriculum/storage"
	"github.com/tomoncle/curriculum/user"
)

type fakeHealth struct{ healthy bool }

func (f fakeHealth) GetHealthStatus(context.Context) *database.HealthStatus {
	return &database.HealthStatus{Healthy: f.healthy, Connected: f.healthy}
}

type api struct {
	t      *testing.T
	router *gin.Engine
	users  *user.Service
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	models := append([]database.SQLModel{user.Model()}, cv.Models()...)
	db := dbtest.Open(t, models...)
	tokens, err := auth.NewTokenManager("test-secret", "curriculum", time.Hour)
	require.NoError(t, err)

	backend, err := storage.NewLocalBackend(t.TempDir(), "/uploads")
	require.NoError(t, err)
	files := storage.NewStore(backend, storage.DefaultValidator())

	users := user.NewService(db, tokens)
	router := server.NewRouter(server.Options{
		Users:  users,
		CVs:    cv.NewService(db, users, files),
		Tokens: tokens,
		Health: fakeHealth{healthy: true},
	})
	return &api{t: t, router: router, users: users}
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *api) login(username, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v2/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func (a *api) signup(username, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v2/auth/register", "", gin.H{"username": username, "password": password})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(a.t, rec.Body.String(), "password")
	return a.login(username, password)
}

func (a *api) admin() string {
	a.t.Helper()
	_, err := a.users.EnsureAdmin(context.Background(), "root", "changeme")
	require.NoError(a.t, err)
	return a.login("root", "changeme")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestCVLifecycle(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice", "secret-1")

	rec := a.do(http.MethodPost, "/api/v2/cv", alice, gin.H{"name": "A", "firstname": "Ada", "age": 36, "job": "engineer"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[cv.CV](t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, int64(1), created.UserID)

	rec = a.do(http.MethodPatch, "/api/v2/cv/1", alice, gin.H{"name": "B"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[cv.CV](t, rec)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, "Ada", updated.Firstname)
	assert.Equal(t, 36, updated.Age)

	rec = a.do(http.MethodGet, "/api/v2/cv/profile", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]cv.CV](t, rec), 1)

	rec = a.do(http.MethodDelete, "/api/v2/cv/1", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"affected":1}`, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/v2/cv/1", alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Error.Code)

	rec = a.do(http.MethodPost, "/api/v2/cv/1/restore", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	root := a.admin()
	rec = a.do(http.MethodPost, "/api/v2/cv/1/restore", root, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/v2/cv/1", alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOwnershipAndRoles(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice", "secret-1")
	bob := a.signup("bob", "secret-2")
	root := a.admin()

	rec := a.do(http.MethodPost, "/api/v2/cv", alice, gin.H{"name": "Lovelace", "firstname": "Ada", "age": 30})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = a.do(http.MethodPost, "/api/v2/cv", bob, gin.H{"name": "Hopper", "firstname": "Grace", "age": 41})
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPatch, "/api/v2/cv/1", bob, gin.H{"name": "x"}).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodDelete, "/api/v2/cv/1", bob, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPatch, "/api/v2/cv/1", root, gin.H{"name": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/v2/cv/9", bob, nil).Code)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/v2/cv", alice, nil).Code)

	rec = a.do(http.MethodGet, "/api/v2/cv", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]cv.CV](t, rec), 2)

	rec = a.do(http.MethodGet, "/api/v2/cv?age=30", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	only := decode[[]cv.CV](t, rec)
	require.Len(t, only, 1)
	assert.Equal(t, "Lovelace", only[0].Name)

	rec = a.do(http.MethodGet, "/api/v2/cv?criteria=GRACE", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]cv.CV](t, rec), 1)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/v2/cv?age=old", root, nil).Code)
}

func TestAdminListingQueryValues(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice", "secret-1")
	root := a.admin()
	for _, body := range []gin.H{
		{"name": "Lovelace", "firstname": "Ada", "age": 30},
		{"name": "Hopper", "firstname": "Grace", "age": 40},
	} {
		require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v2/cv", alice, body).Code)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?age=", 2},
		{"?age=%20&criteria=%20", 2},
		{"?age=30", 1},
		{"?age=0", 0},
		{"?criteria=%25", 0},
		{"?criteria=_", 0},
		{"?criteria=love&age=", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := a.do(http.MethodGet, "/api/v2/cv"+tt.query, root, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Len(t, decode[[]cv.CV](t, rec), tt.want)
		})
	}
}

type cvPage struct {
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
	Items      []cv.CV `json:"items"`
}

func TestPagedListings(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice", "secret-1")
	bob := a.signup("bob", "secret-2")
	root := a.admin()
	for i, age := range []int{30, 50, 40} {
		body := gin.H{"name": string(rune('A' + i)), "firstname": "x", "age": age}
		require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v2/cv", alice, body).Code)
	}
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v2/cv", bob, gin.H{"name": "D", "firstname": "y", "age": 20}).Code)

	rec := a.do(http.MethodGet, "/api/v2/cv?page=1&pageSize=2&sort=-age", root, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[cvPage](t, rec)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, []int{50, 40}, []int{page.Items[0].Age, page.Items[1].Age})

	rec = a.do(http.MethodGet, "/api/v2/cv?page=2&pageSize=3&age=30", root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[cvPage](t, rec)
	assert.Equal(t, 1, page.Total)
	assert.Empty(t, page.Items)

	rec = a.do(http.MethodGet, "/api/v2/cv/profile?pageSize=2&sort=name,bogus", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page = decode[cvPage](t, rec)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "A", page.Items[0].Name)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/v2/cv?page=1", alice, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/v2/cv/profile?page=first", alice, nil).Code)

	rec = a.do(http.MethodGet, "/api/v2/users?pageSize=2&sort=-id", root, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var users struct {
		Total      int         `json:"total"`
		TotalPages int         `json:"totalPages"`
		Items      []user.User `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Equal(t, 3, users.Total)
	assert.Equal(t, 2, users.TotalPages)
	require.Len(t, users.Items, 2)
	assert.Equal(t, "root", users.Items[0].Username)
	assert.NotContains(t, rec.Body.String(), "password")

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/v2/users", alice, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/v2/users", "", nil).Code)
}

func TestAuthenticationFailures(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/v2/cv/profile", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/v2/cv", "", gin.H{"name": "A", "firstname": "B"}).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/v2/cv/profile", "garbage", nil).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/cv/profile", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	a.signup("alice", "secret-1")
	rec = a.do(http.MethodPost, "/api/v2/auth/login", "", gin.H{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/api/v2/auth/register", "", gin.H{"username": "alice", "password": "secret-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = a.do(http.MethodPost, "/api/v2/auth/register", "", gin.H{"username": "carol"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBadRequests(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice", "secret-1")

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/v2/cv/abc", alice, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/v2/cv", alice, gin.H{"name": "only"}).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, a.do(http.MethodPost, "/api/v2/cv", alice, gin.H{"name": "A", "firstname": "B", "age": 999}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/v2/nowhere", alice, nil).Code)
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func (a *api) upload(token, name string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if content != nil {
		part, err := w.CreateFormFile("file", name)
		require.NoError(a.t, err)
		_, err = part.Write(content)
		require.NoError(a.t, err)
	}
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	require.NoError(a.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v2/cv/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestUpload(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("alice", "secret-1")
	bob := a.signup("bob", "secret-2")
	rec := a.do(http.MethodPost, "/api/v2/cv", alice, gin.H{"name": "A", "firstname": "Ada"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.upload(alice, "me.png", pngFile(t), map[string]string{"cvId": "1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	desc := decode[storage.Descriptor](t, rec)
	assert.Equal(t, "image/png", desc.ContentType)
	assert.Equal(t, "me.png", desc.FileName)
	assert.True(t, strings.HasPrefix(desc.URL, "/uploads/u1/"), desc.URL)

	rec = a.do(http.MethodGet, "/api/v2/cv/1", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, desc.URL, decode[cv.CV](t, rec).Path)

	rec = a.do(http.MethodGet, "/api/v2/cv/1/attachments", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]cv.Attachment](t, rec), 1)

	rec = a.upload(alice, "cv.txt", []byte("plain text is not a photo"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = a.upload(alice, "", nil, map[string]string{"cvId": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = a.upload(bob, "me.png", pngFile(t), map[string]string{"cvId": "1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = a.upload(alice, "me.png", pngFile(t), map[string]string{"cvId": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.upload(bob, "me.png", pngFile(t), nil)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/v2/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = a.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "curriculum_http_requests_total")

	down := server.NewRouter(server.Options{Health: fakeHealth{healthy: false}})
	req := httptest.NewRequest(http.MethodGet, "/api/v2/health", nil)
	out := httptest.NewRecorder()
	down.ServeHTTP(out, req)
	assert.Equal(t, http.StatusServiceUnavailable, out.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), time.Second, time.Second)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
