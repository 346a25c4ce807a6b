package domain

import (
	"math"
	"time"
)

// Font size bounds, in percent of the engine's base size.
const (
	MinFontSize     = 80
	MaxFontSize     = 150
	DefaultFontSize = 100
	FontSizeStep    = 10
)

// progressKeyPrefix namespaces reading progress in device-local storage.
const progressKeyPrefix = "reading-progress-"

// ReadingProgress is the reader state saved for one book on one device.
type ReadingProgress struct {
	BookID string
	// Location is the engine's opaque position token. Empty means no
	// position has been reached yet and the book opens at its start.
	Location  string
	Theme     Theme
	FontSize  int
	// UpdatedAt is stored as epoch milliseconds; see ProgressTime.
	UpdatedAt time.Time
}

// ProgressTime returns t in the form progress timestamps are kept: UTC,
// truncated to the millisecond.
func ProgressTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// NewReadingProgress returns the state a book opens with when nothing is saved.
func NewReadingProgress(bookID string) ReadingProgress {
	return ReadingProgress{
		BookID:   bookID,
		Theme:    DefaultTheme,
		FontSize: DefaultFontSize,
	}
}

// HasLocation reports whether a position has been recorded.
func (p ReadingProgress) HasLocation() bool {
	return p.Location != ""
}

// ProgressKey returns the storage key for a book's progress record.
func ProgressKey(bookID string) string {
	return progressKeyPrefix + bookID
}

// BookIDFromProgressKey reverses ProgressKey.
func BookIDFromProgressKey(key string) (string, bool) {
	if len(key) <= len(progressKeyPrefix) || key[:len(progressKeyPrefix)] != progressKeyPrefix {
		return "", false
	}
	return key[len(progressKeyPrefix):], true
}

// ProgressKeyPrefix returns the prefix shared by all progress keys.
func ProgressKeyPrefix() string {
	return progressKeyPrefix
}

// ClampFontSize rounds size to the nearest step (halves round up) and
// clamps it into [MinFontSize, MaxFontSize].
func ClampFontSize(size int) int {
	rounded := int(math.Floor(float64(size)/FontSizeStep+0.5)) * FontSizeStep
	return max(MinFontSize, min(MaxFontSize, rounded))
}
