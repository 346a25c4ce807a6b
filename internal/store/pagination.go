package store

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PaginationParams are the paging inputs of a list request.
type PaginationParams struct {
	Limit  int
	Cursor string // opaque; empty for the first page
}

// PaginatedResult is one page of a newest-first listing.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// Validate clamps Limit into range.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
}

// Position is a keyset cursor position: the created time and id of the last
// item on the previous page.
type Position struct {
	CreatedAt time.Time
	ID        string
}

// EncodeCursor returns the opaque cursor for pos.
func EncodeCursor(pos Position) string {
	raw := pos.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + pos.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor. An empty cursor yields ok=false.
func DecodeCursor(cursor string) (pos Position, ok bool, err error) {
	if cursor == "" {
		return Position{}, false, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return Position{}, false, ErrInvalidInput.WithMessage("invalid cursor").WithCause(err)
	}
	ts, id, found := strings.Cut(string(raw), "|")
	if !found || id == "" {
		return Position{}, false, ErrInvalidInput.WithMessage("invalid cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Position{}, false, ErrInvalidInput.WithMessage("invalid cursor").WithCause(fmt.Errorf("parse time: %w", err))
	}
	return Position{CreatedAt: t, ID: id}, true, nil
}
