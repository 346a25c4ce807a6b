package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestNewStorage(t *testing.T) {
	t.Run("creates a directory per kind", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "uploads")

		s, err := NewStorage(root)
		require.NoError(t, err)
		assert.Equal(t, root, s.Root())

		for _, k := range []Kind{KindBooks, KindCovers, KindAvatars} {
			info, err := os.Stat(filepath.Join(root, string(k)))
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	})

	t.Run("rejects empty path", func(t *testing.T) {
		s, err := NewStorage("")
		assert.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestStorage_Save(t *testing.T) {
	t.Run("writes the file and returns its url", func(t *testing.T) {
		s := setupTestStorage(t)

		f, err := s.Save(KindBooks, "my book.epub", strings.NewReader("epub bytes"), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(10), f.Size)
		assert.Equal(t, "/uploads/books/my%20book.epub", f.URL)

		data, err := os.ReadFile(s.Path(KindBooks, "my book.epub"))
		require.NoError(t, err)
		assert.Equal(t, "epub bytes", string(data))
		assert.True(t, s.Exists(KindBooks, "my book.epub"))
	})

	t.Run("enforces the size limit", func(t *testing.T) {
		s := setupTestStorage(t)

		_, err := s.Save(KindAvatars, "big.jpg", strings.NewReader("0123456789"), 5)
		assert.ErrorIs(t, err, ErrTooLarge)
		assert.False(t, s.Exists(KindAvatars, "big.jpg"))

		entries, err := os.ReadDir(filepath.Join(s.Root(), string(KindAvatars)))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("accepts input exactly at the limit", func(t *testing.T) {
		s := setupTestStorage(t)
		_, err := s.Save(KindAvatars, "ok.jpg", strings.NewReader("12345"), 5)
		assert.NoError(t, err)
	})

	t.Run("rejects names with directories", func(t *testing.T) {
		s := setupTestStorage(t)
		_, err := s.Save(KindBooks, "../escape.epub", strings.NewReader("x"), 0)
		assert.Error(t, err)
	})

	t.Run("rejects empty bytes", func(t *testing.T) {
		s := setupTestStorage(t)
		_, err := s.SaveBytes(KindCovers, "c.jpg", nil)
		assert.Error(t, err)
	})
}

func TestStorage_StampedName(t *testing.T) {
	s := setupTestStorage(t)
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	assert.Equal(t, "1700000000000-a_b.epub", s.StampedName("a/b.epub"))
}

func TestStorage_DeleteByURL(t *testing.T) {
	s := setupTestStorage(t)
	f, err := s.SaveBytes(KindAvatars, "user-1.jpg", []byte("jpeg"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteByURL(f.URL))
	assert.False(t, s.Exists(KindAvatars, "user-1.jpg"))

	// Second delete and foreign URLs are no-ops.
	assert.NoError(t, s.DeleteByURL(f.URL))
	assert.NoError(t, s.DeleteByURL("https://example.com/a.jpg"))
	assert.NoError(t, s.DeleteByURL(""))
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url  string
		kind Kind
		name string
		ok   bool
	}{
		{"/uploads/books/1-dune.epub", KindBooks, "1-dune.epub", true},
		{"/uploads/covers/1-cover.jpg", KindCovers, "1-cover.jpg", true},
		{"/uploads/avatars/a%20b.jpg", KindAvatars, "a b.jpg", true},
		{"/uploads/other/x.jpg", "", "", false},
		{"/uploads/books/..%2Fsecret", "", "", false},
		{"/uploads/books/", "", "", false},
		{"/static/books/x", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			kind, name, ok := ParseURL(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dune.epub", "dune.epub"},
		{`a\b/c:d*e?f"g<h>i|j.epub`, "a_b_c_d_e_f_g_h_i_j.epub"},
		{"tab\there.epub", "tabhere.epub"},
		{"  spaced.epub  ", "spaced.epub"},
		{"", "file"},
		{"..", "file"},
		{"café.epub", "café.epub"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeFileName(tt.in), tt.in)
	}

	long := SafeFileName(strings.Repeat("é", 300) + ".epub")
	assert.LessOrEqual(t, len(long), maxFileNameBytes)
	assert.True(t, strings.HasSuffix(long, ".epub"))
}
