package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/shelfside/internal/domain"
)

func TestProfile_Counts(t *testing.T) {
	ts := setupTestServer(t)
	admin, _ := ts.createUser(t, "admin", domain.RoleAdmin)
	reader, readerUser := ts.createUser(t, "reader", domain.RoleUser)
	book := ts.uploadBook(t, admin, "dune.epub", "dune", nil)

	post := ts.createPost(t, reader, "my first post", book.ID)
	resp := ts.api.Post("/api/v1/posts/"+post.ID+"/comments", bearer(reader), map[string]any{"content": "and a reply"})
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = ts.api.Post("/api/v1/books/"+book.ID+"/access", bearer(reader))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/profile", bearer(reader))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	profile := decodeEnvelope[ProfileResponse](t, resp).Data
	assert.Equal(t, readerUser.ID, profile.User.ID)
	assert.Equal(t, domain.ProfileStats{BooksAccessed: 1, Posts: 1, Comments: 1}, profile.Stats)

	resp = ts.api.Get("/api/v1/profile")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestProfile_AvatarUpload(t *testing.T) {
	ts := setupTestServer(t)
	admin, _ := ts.createUser(t, "admin", domain.RoleAdmin)
	reader, readerUser := ts.createUser(t, "reader", domain.RoleUser)
	other, _ := ts.createUser(t, "other", domain.RoleUser)

	rec := ts.serve(multipartRequest(t, http.MethodPut, "/api/v1/profile/avatar", reader, "avatar", "me.png", testPNG(t), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, first := decodeResponse[UserResponse](t, rec)
	require.NotEmpty(t, first.AvatarURL)

	served := httptest.NewRecorder()
	ts.ServeHTTP(served, httptest.NewRequest(http.MethodGet, first.AvatarURL, nil))
	assert.Equal(t, http.StatusOK, served.Code)

	t.Run("admin replaces another user's avatar", func(t *testing.T) {
		rec := ts.serve(multipartRequest(t, http.MethodPut, "/api/v1/profile/avatar", admin, "avatar", "x.png", testPNG(t),
			map[string]string{"user_id": readerUser.ID}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		_, updated := decodeResponse[UserResponse](t, rec)
		assert.Equal(t, readerUser.ID, updated.ID)
		assert.NotEqual(t, first.AvatarURL, updated.AvatarURL)

		gone := httptest.NewRecorder()
		ts.ServeHTTP(gone, httptest.NewRequest(http.MethodGet, first.AvatarURL, nil))
		assert.Equal(t, http.StatusNotFound, gone.Code)
	})

	t.Run("user cannot replace another user's avatar", func(t *testing.T) {
		rec := ts.serve(multipartRequest(t, http.MethodPut, "/api/v1/profile/avatar", other, "avatar", "x.png", testPNG(t),
			map[string]string{"user_id": readerUser.ID}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		rec := ts.serve(multipartRequest(t, http.MethodPut, "/api/v1/profile/avatar", reader, "avatar", "x.png", []byte("plain text"), nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		rec := ts.serve(multipartRequest(t, http.MethodPut, "/api/v1/profile/avatar", reader, "", "", nil, map[string]string{"x": "y"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := ts.serve(multipartRequest(t, http.MethodPut, "/api/v1/profile/avatar", "", "avatar", "x.png", testPNG(t), nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
