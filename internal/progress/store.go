package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shelfside/shelfside/internal/domain"
)

const deviceIDKey = "shelfside-device-id"

// record is the persisted JSON shape of a ReadingProgress.
type record struct {
	BookID    string  `json:"bookId,omitempty"`
	Location  *string `json:"location"`
	Theme     string  `json:"theme"`
	FontSize  int     `json:"fontSize"`
	UpdatedAt int64   `json:"updatedAt"`
}

// Store loads and saves reading progress keyed by book.
type Store struct {
	kv     KV
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a progress store over kv.
func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, logger: logger, now: time.Now}
}

// Load returns the saved progress for bookID. The second result is false
// when nothing usable is stored: a missing key, unreadable storage, a record
// that does not decode, or one naming an unknown theme. Stored font sizes are
// clamped into range.
func (s *Store) Load(bookID string) (domain.ReadingProgress, bool) {
	raw, err := s.kv.Get(domain.ProgressKey(bookID))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("failed to read reading progress", "book_id", bookID, "error", err)
		}
		return domain.ReadingProgress{}, false
	}

	p, err := decode(bookID, raw)
	if err != nil {
		s.logger.Warn("discarding unreadable reading progress", "book_id", bookID, "error", err)
		return domain.ReadingProgress{}, false
	}
	return p, true
}

// Save writes progress for bookID, replacing any previous record. A zero
// UpdatedAt is stamped with the current time. Write failures are logged and
// otherwise ignored.
func (s *Store) Save(bookID string, p domain.ReadingProgress) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now()
	}
	p.UpdatedAt = domain.ProgressTime(p.UpdatedAt)

	rec := record{
		BookID:    bookID,
		Theme:     string(p.Theme),
		FontSize:  domain.ClampFontSize(p.FontSize),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	}
	if p.Location != "" {
		loc := p.Location
		rec.Location = &loc
	}

	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error("failed to encode reading progress", "book_id", bookID, "error", err)
		return
	}

	if err := s.kv.Set(domain.ProgressKey(bookID), string(data)); err != nil {
		s.logger.Warn("failed to save reading progress", "book_id", bookID, "error", err)
		return
	}
	s.logger.Debug("reading progress saved", "book_id", bookID, "theme", p.Theme, "font_size", rec.FontSize)
}

// List returns every readable progress record. It requires a KV that implements KeyLister.
func (s *Store) List() ([]domain.ReadingProgress, error) {
	lister, ok := s.kv.(KeyLister)
	if !ok {
		return nil, fmt.Errorf("progress: storage %T cannot list keys", s.kv)
	}

	keys, err := lister.Keys(domain.ProgressKeyPrefix())
	if err != nil {
		return nil, fmt.Errorf("list progress keys: %w", err)
	}

	out := make([]domain.ReadingProgress, 0, len(keys))
	for _, key := range keys {
		bookID, ok := domain.BookIDFromProgressKey(key)
		if !ok {
			continue
		}
		if p, ok := s.Load(bookID); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// DeviceID returns the identifier of this device, creating and persisting
// one on first use. If it cannot be persisted a fresh identifier is returned
// for this process only.
func (s *Store) DeviceID() string {
	if id, err := s.kv.Get(deviceIDKey); err == nil {
		if _, perr := uuid.Parse(id); perr == nil {
			return id
		}
	}

	id := uuid.NewString()
	if err := s.kv.Set(deviceIDKey, id); err != nil {
		s.logger.Warn("failed to persist device id", "error", err)
	}
	return id
}

func decode(bookID, raw string) (domain.ReadingProgress, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.ReadingProgress{}, fmt.Errorf("decode: %w", err)
	}

	theme, ok := domain.ParseTheme(rec.Theme)
	if !ok {
		return domain.ReadingProgress{}, fmt.Errorf("unknown theme %q", rec.Theme)
	}

	fontSize := rec.FontSize
	if fontSize == 0 {
		fontSize = domain.DefaultFontSize
	}

	p := domain.ReadingProgress{
		BookID:   bookID,
		Theme:    theme,
		FontSize: domain.ClampFontSize(fontSize),
	}
	if rec.Location != nil {
		p.Location = *rec.Location
	}
	if rec.UpdatedAt > 0 {
		p.UpdatedAt = time.UnixMilli(rec.UpdatedAt).UTC()
	}
	return p, nil
}
