// Package reader runs one reading session: it owns a pagination engine bound
// to a container, restores and persists per-book progress, and applies the
// reader's theme and font size.
package reader

import (
	"context"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/theme"
)

// Container is the host surface a rendition draws into.
type Container interface {
	ID() string
}

// LayoutOptions controls how a book is laid out in its container.
type LayoutOptions struct {
	Width  string
	Height string
	Flow   string
	Spread string
}

// DefaultLayout fills the container with single paginated pages.
func DefaultLayout() LayoutOptions {
	return LayoutOptions{Width: "100%", Height: "100%", Flow: "paginated", Spread: "none"}
}

// EngineFactory opens books for rendering.
type EngineFactory interface {
	Open(ctx context.Context, fileURL string) (Engine, error)
}

// Engine is an opened book. It is owned by exactly one session.
type Engine interface {
	RenderTo(container Container, opts LayoutOptions) (Rendition, error)
	Destroy() error
}

// Rendition is an engine bound to a container. Relocation callbacks may be
// invoked from inside any rendition call.
type Rendition interface {
	// Display shows location, or the start of the book when location is empty.
	Display(ctx context.Context, location string) error
	OnRelocated(fn func(location string)) Subscription
	Prev() error
	Next() error
	Themes() theme.Registry
}

// Subscription is the handle for a relocation listener.
type Subscription interface {
	Unsubscribe()
}

// Book is the metadata a session needs to open a book.
type Book struct {
	ID      string
	Title   string
	FileURL string
}

// ProgressStore is the device-local progress persistence used by a session.
type ProgressStore interface {
	Load(bookID string) (domain.ReadingProgress, bool)
	Save(bookID string, p domain.ReadingProgress)
}

// AccessTracker reports that a user opened a book.
type AccessTracker interface {
	RecordAccess(ctx context.Context, bookID, userID string) error
}
