package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/shelfside/internal/auth"
	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/http/response"
	"github.com/shelfside/shelfside/internal/id"
	"github.com/shelfside/shelfside/internal/media"
	"github.com/shelfside/shelfside/internal/search"
	"github.com/shelfside/shelfside/internal/service"
	"github.com/shelfside/shelfside/internal/store/sqlite"
	"github.com/shelfside/shelfside/internal/validation"
)

// testEnvelope mirrors the response envelope with a typed payload.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type testServer struct {
	*Server
	api humatest.TestAPI
}

func defaultTestOptions() Options {
	return Options{
		LoginRate:      600,
		LoginBurst:     100,
		MaxBookBytes:   1 << 20,
		MaxCoverBytes:  1 << 20,
		MaxAvatarBytes: 1 << 20,
	}
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWith(t, defaultTestOptions())
}

func setupTestServerWith(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(dir, "shelfside.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := search.Open(search.Options{DataPath: filepath.Join(dir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	files, err := media.NewStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)

	v := validation.New()
	books := service.NewBookService(st, idx, files, service.BookLimits{
		MaxBookBytes:  opts.MaxBookBytes,
		MaxCoverBytes: opts.MaxCoverBytes,
	}, logger)
	services := &Services{
		Auth:    service.NewAuthService(st, tokens, v, logger),
		Books:   books,
		Forum:   service.NewForumService(st, v, logger),
		Profile: service.NewProfileService(st, files, opts.MaxAvatarBytes, logger),
		Admin:   service.NewAdminService(st, books, v, logger),
	}

	s := NewServer(st, idx, files, services, opts, logger)
	t.Cleanup(s.Close)

	return &testServer{Server: s, api: humatest.Wrap(t, s.api)}
}

func decodeEnvelope[T any](t *testing.T, rec *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// createUser stores an account directly and signs it in through the API.
func (ts *testServer) createUser(t *testing.T, name string, role domain.Role) (string, UserResponse) {
	t.Helper()
	hash, err := auth.HashPassword("pw123")
	require.NoError(t, err)

	now := time.Now()
	u := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser), CreatedAt: now, UpdatedAt: now},
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}
	require.NoError(t, ts.store.CreateUser(context.Background(), u))

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{"name": name, "password": "pw123"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[AuthResponse](t, resp)
	return env.Data.AccessToken, env.Data.User
}

// multipartRequest builds a multipart body with one file part and text fields.
func multipartRequest(t *testing.T, method, path, token, fileField, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (ts *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) (response.Envelope, T) {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())

	var data T
	if env.Data != nil {
		raw, err := json.Marshal(env.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &data))
	}
	return env, data
}

// uploadBook uploads an EPUB through the multipart endpoint as token's user.
func (ts *testServer) uploadBook(t *testing.T, token, fileName, content string, fields map[string]string) *domain.Book {
	t.Helper()
	rec := ts.serve(multipartRequest(t, http.MethodPost, "/api/v1/books", token, "file", fileName, []byte(content), fields))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	_, book := decodeResponse[domain.Book](t, rec)
	return &book
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: 80, B: uint8(y * 16), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
