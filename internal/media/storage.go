// Package media stores uploaded files and derives image placeholders.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Kind is a category of uploaded file, stored in its own subdirectory.
type Kind string

const (
	KindBooks   Kind = "books"
	KindCovers  Kind = "covers"
	KindAvatars Kind = "avatars"
)

// URLPrefix is the public path under which uploads are served.
const URLPrefix = "/uploads/"

// ErrTooLarge is returned when an upload exceeds its size limit.
var ErrTooLarge = errors.New("file too large")

// StoredFile describes a file written by Save.
type StoredFile struct {
	Name string
	Path string
	URL  string
	Size int64
}

// Storage manages the uploads directory.
// Safe for concurrent use.
type Storage struct {
	root string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewStorage creates the uploads directory layout under root.
func NewStorage(root string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("uploads path cannot be empty")
	}
	for _, k := range []Kind{KindBooks, KindCovers, KindAvatars} {
		if err := os.MkdirAll(filepath.Join(root, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", k, err)
		}
	}
	return &Storage{root: root, now: time.Now}, nil
}

// Root returns the uploads directory.
func (s *Storage) Root() string {
	return s.root
}

// StampedName prefixes the sanitized name with the current Unix millisecond
// time, e.g. "1700000000000-dune.epub".
func (s *Storage) StampedName(name string) string {
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), SafeFileName(name))
}

// Save copies r into kind/name. At most maxBytes are accepted when maxBytes > 0;
// a larger input leaves nothing behind and returns ErrTooLarge.
func (s *Storage) Save(kind Kind, name string, r io.Reader, maxBytes int64) (*StoredFile, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid file name %q", name)
	}

	dir := filepath.Join(s.root, string(kind))
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		return nil, ErrTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("move upload: %w", err)
	}
	return &StoredFile{Name: name, Path: path, URL: URL(kind, name), Size: n}, nil
}

// SaveBytes writes data to kind/name.
func (s *Storage) SaveBytes(kind Kind, name string, data []byte) (*StoredFile, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("file data cannot be empty")
	}
	return s.Save(kind, name, bytes.NewReader(data), 0)
}

// Path returns the filesystem path of kind/name.
func (s *Storage) Path(kind Kind, name string) string {
	return filepath.Join(s.root, string(kind), name)
}

// Exists reports whether kind/name is present.
func (s *Storage) Exists(kind Kind, name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.Path(kind, name))
	return err == nil
}

// Delete removes kind/name. A missing file is not an error.
func (s *Storage) Delete(kind Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(kind, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s/%s: %w", kind, name, err)
	}
	return nil
}

// DeleteByURL removes the file a public upload URL points at. URLs outside
// the uploads tree are ignored.
func (s *Storage) DeleteByURL(u string) error {
	kind, name, ok := ParseURL(u)
	if !ok {
		return nil
	}
	return s.Delete(kind, name)
}

// URL returns the public URL of kind/name.
func URL(kind Kind, name string) string {
	return URLPrefix + string(kind) + "/" + url.PathEscape(name)
}

// ParseURL splits a public upload URL into its kind and file name.
func ParseURL(u string) (Kind, string, bool) {
	rest, ok := strings.CutPrefix(u, URLPrefix)
	if !ok {
		return "", "", false
	}
	k, escaped, ok := strings.Cut(rest, "/")
	if !ok {
		return "", "", false
	}
	kind := Kind(k)
	if kind != KindBooks && kind != KindCovers && kind != KindAvatars {
		return "", "", false
	}
	name, err := url.PathUnescape(escaped)
	if err != nil || name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", "", false
	}
	return kind, name, true
}
