package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfside/shelfside/internal/auth"
	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/id"
	"github.com/shelfside/shelfside/internal/media"
	"github.com/shelfside/shelfside/internal/search"
	"github.com/shelfside/shelfside/internal/store/sqlite"
	"github.com/shelfside/shelfside/internal/validation"
)

type harness struct {
	store   *sqlite.Store
	index   *search.BookIndex
	files   *media.Storage
	tokens  *auth.TokenService
	auth    *AuthService
	books   *BookService
	forum   *ForumService
	profile *ProfileService
	admin   *AdminService
	clock   time.Time
}

func newHarness(t *testing.T) *harness {
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

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{7}, 32), time.Hour)
	require.NoError(t, err)

	v := validation.New()
	h := &harness{
		store:  st,
		index:  idx,
		files:  files,
		tokens: tokens,
		clock:  time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	h.auth = NewAuthService(st, tokens, v, logger)
	h.books = NewBookService(st, idx, files, BookLimits{MaxBookBytes: 1 << 20, MaxCoverBytes: 1 << 20}, logger)
	h.forum = NewForumService(st, v, logger)
	h.profile = NewProfileService(st, files, 1<<20, logger)
	h.admin = NewAdminService(st, h.books, v, logger)

	now := func() time.Time {
		h.clock = h.clock.Add(time.Second)
		return h.clock
	}
	h.auth.now = now
	h.books.now = now
	h.forum.now = now
	h.profile.now = now
	h.admin.now = now
	return h
}

func (h *harness) user(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("pw123")
	require.NoError(t, err)
	u := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser), CreatedAt: h.clock, UpdatedAt: h.clock},
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}
	require.NoError(t, h.store.CreateUser(context.Background(), u))
	return u
}

func (h *harness) upload(t *testing.T, uploader *domain.User, fileName, content string) *domain.Book {
	t.Helper()
	b, err := h.books.Upload(context.Background(), UploadRequest{
		FileName:   fileName,
		FileSize:   int64(len(content)),
		Content:    bytes.NewReader([]byte(content)),
		UploaderID: uploader.ID,
	})
	require.NoError(t, err)
	return b
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 30))
	for y := range 30 {
		for x := range 20 {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngDataURL(t *testing.T) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngImage(t))
}
