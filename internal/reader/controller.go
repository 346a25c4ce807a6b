package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/theme"
)

// State is the lifecycle phase of a session.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDestroyed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrEngineFailed wraps any error from opening, binding or displaying a book.
	ErrEngineFailed = errors.New("reader: engine failed")
	// ErrSessionClosed is returned by Mount when the session was unmounted
	// before the book finished displaying.
	ErrSessionClosed = errors.New("reader: session closed")
	// ErrAlreadyMounted is returned by Mount while a session is active.
	ErrAlreadyMounted = errors.New("reader: session already mounted")
)

// Options configures a Controller.
type Options struct {
	Engines   EngineFactory
	Container Container
	Progress  ProgressStore
	// Applier defaults to one over theme.DefaultPresets.
	Applier *theme.Applier
	// Access is notified once per mount when a user is known. Optional.
	Access AccessTracker
	Logger *slog.Logger
}

// Controller runs reading sessions in one container, one book at a time.
//
// Every event is serialized through mu. Engine calls are made without
// holding mu because the engine may report relocations from inside them;
// gen is bumped on teardown so late completions and callbacks from a
// released engine are recognized and dropped. Settings changes also hold
// applyMu from update to persist, so they reach the engine and the store in
// the order they were made.
type Controller struct {
	engines   EngineFactory
	container Container
	store     ProgressStore
	applier   *theme.Applier
	access    *AccessRecorder
	logger    *slog.Logger
	now       func() time.Time

	applyMu   sync.Mutex
	mu        sync.Mutex
	state     State
	gen       uint64
	book      Book
	engine    Engine
	rendition Rendition
	sub       Subscription
	theme     domain.Theme
	fontSize  int
	location  string
}

// NewController creates an idle controller.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	applier := opts.Applier
	if applier == nil {
		applier = theme.NewApplier(theme.DefaultPresets(), logger)
	}

	return &Controller{
		engines:   opts.Engines,
		container: opts.Container,
		store:     opts.Progress,
		applier:   applier,
		access:    NewAccessRecorder(opts.Access, logger),
		logger:    logger,
		now:       func() time.Time { return domain.ProgressTime(time.Now()) },
		state:     StateUninitialized,
		theme:     domain.DefaultTheme,
		fontSize:  domain.DefaultFontSize,
	}
}

// Mount opens book in the container and displays it at the saved location,
// or at its start when nothing is saved. It returns once the book is shown
// and the session is Ready. Engine failures end the session in StateFailed.
func (c *Controller) Mount(ctx context.Context, book Book, userID string) error {
	c.mu.Lock()
	if c.state == StateInitializing || c.state == StateReady {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}

	c.gen++
	gen := c.gen
	c.book = book
	c.state = StateInitializing

	saved, ok := c.store.Load(book.ID)
	if !ok {
		saved = domain.NewReadingProgress(book.ID)
	}
	c.theme = saved.Theme
	c.fontSize = domain.ClampFontSize(saved.FontSize)
	c.location = saved.Location
	start := c.location

	c.access.Record(book.ID, userID)
	c.mu.Unlock()

	log := c.logger.With("book_id", book.ID)
	log.Debug("mounting reader", "restored", ok, "location", start)

	engine, err := c.engines.Open(ctx, book.FileURL)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		if err == nil {
			c.destroy(engine, nil, log)
		}
		return ErrSessionClosed
	}
	if err != nil {
		c.failLocked()
		c.mu.Unlock()
		return fmt.Errorf("%w: open %s: %w", ErrEngineFailed, book.FileURL, err)
	}

	rendition, err := engine.RenderTo(c.container, DefaultLayout())
	if err != nil {
		c.failLocked()
		c.mu.Unlock()
		c.destroy(engine, nil, log)
		return fmt.Errorf("%w: render: %w", ErrEngineFailed, err)
	}

	c.engine = engine
	c.rendition = rendition
	c.applier.Register(rendition.Themes())
	c.sub = rendition.OnRelocated(func(location string) {
		c.handleRelocated(gen, location)
	})
	c.mu.Unlock()

	err = rendition.Display(ctx, start)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	if err != nil {
		sub, engine := c.detachLocked()
		c.failLocked()
		c.mu.Unlock()
		c.destroy(engine, sub, log)
		return fmt.Errorf("%w: display: %w", ErrEngineFailed, err)
	}
	themeName, fontSize := c.theme, c.fontSize
	c.mu.Unlock()

	// Settings changed while applying are re-applied before going ready.
	for {
		c.applier.Apply(rendition.Themes(), themeName, fontSize)

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return ErrSessionClosed
		}
		if c.theme == themeName && c.fontSize == fontSize {
			break
		}
		themeName, fontSize = c.theme, c.fontSize
		c.mu.Unlock()
	}
	defer c.mu.Unlock()

	c.state = StateReady
	c.persistLocked()
	log.Info("reader ready", "theme", c.theme, "font_size", c.fontSize)
	return nil
}

// handleRelocated records the new position and persists it once the session is ready.
func (c *Controller) handleRelocated(gen uint64, location string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen || (c.state != StateInitializing && c.state != StateReady) {
		return
	}
	if location == "" || location == c.location {
		return
	}
	c.location = location
	if c.state == StateReady {
		c.persistLocked()
	}
}

// SetTheme switches the color theme. Unknown themes are rejected.
func (c *Controller) SetTheme(t domain.Theme) error {
	if !t.Valid() {
		return fmt.Errorf("reader: unknown theme %q", t)
	}
	c.updateSettings(func() { c.theme = t })
	return nil
}

// SetFontSize sets the font size, clamped to the supported range.
func (c *Controller) SetFontSize(size int) {
	c.updateSettings(func() { c.fontSize = domain.ClampFontSize(size) })
}

// IncreaseFontSize grows the font by one step.
func (c *Controller) IncreaseFontSize() {
	c.updateSettings(func() { c.fontSize = domain.ClampFontSize(c.fontSize + domain.FontSizeStep) })
}

// DecreaseFontSize shrinks the font by one step.
func (c *Controller) DecreaseFontSize() {
	c.updateSettings(func() { c.fontSize = domain.ClampFontSize(c.fontSize - domain.FontSizeStep) })
}

// updateSettings applies change to the in-memory settings. When the session
// is ready the new settings are pushed to the engine and persisted; before
// that they are picked up when the book finishes displaying.
func (c *Controller) updateSettings(change func()) {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	if c.state == StateDestroyed || c.state == StateFailed {
		c.mu.Unlock()
		return
	}
	change()
	if c.state != StateReady {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	registry := c.rendition.Themes()
	themeName, fontSize := c.theme, c.fontSize
	c.mu.Unlock()

	c.applier.Apply(registry, themeName, fontSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen && c.state == StateReady {
		c.persistLocked()
	}
}

// PreviousPage turns back one page. It does nothing unless the session is ready.
func (c *Controller) PreviousPage() error {
	r := c.readyRendition()
	if r == nil {
		return nil
	}
	if err := r.Prev(); err != nil {
		return fmt.Errorf("previous page: %w", err)
	}
	return nil
}

// NextPage turns forward one page. It does nothing unless the session is ready.
func (c *Controller) NextPage() error {
	r := c.readyRendition()
	if r == nil {
		return nil
	}
	if err := r.Next(); err != nil {
		return fmt.Errorf("next page: %w", err)
	}
	return nil
}

func (c *Controller) readyRendition() Rendition {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateReady {
		return nil
	}
	return c.rendition
}

// Hide persists the current state when the page is hidden or navigated away from.
func (c *Controller) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateInitializing || c.state == StateReady {
		c.persistLocked()
	}
}

// Unmount writes the final state, stops listening for relocations and
// releases the engine. Calling it on an inactive session is a no-op.
func (c *Controller) Unmount() error {
	c.mu.Lock()
	if c.state != StateInitializing && c.state != StateReady {
		c.mu.Unlock()
		return nil
	}
	c.persistLocked()
	c.gen++
	sub, engine := c.detachLocked()
	c.state = StateDestroyed
	bookID := c.book.ID
	c.mu.Unlock()

	return c.destroy(engine, sub, c.logger.With("book_id", bookID))
}

// SwitchBook tears down the current session and mounts book in its place.
// The old engine is released before the new one is created.
func (c *Controller) SwitchBook(ctx context.Context, book Book, userID string) error {
	if err := c.Unmount(); err != nil {
		c.logger.Warn("error releasing previous book", "error", err)
	}
	return c.Mount(ctx, book, userID)
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Progress returns a snapshot of the session's reading state.
func (c *Controller) Progress() domain.ReadingProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Book returns the book of the current or most recent session.
func (c *Controller) Book() Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.book
}

func (c *Controller) snapshotLocked() domain.ReadingProgress {
	return domain.ReadingProgress{
		BookID:   c.book.ID,
		Location: c.location,
		Theme:    c.theme,
		FontSize: c.fontSize,
	}
}

func (c *Controller) persistLocked() {
	p := c.snapshotLocked()
	p.UpdatedAt = c.now()
	c.store.Save(c.book.ID, p)
}

func (c *Controller) failLocked() {
	c.gen++
	c.state = StateFailed
}

// detachLocked clears the engine fields and returns what must be released.
func (c *Controller) detachLocked() (Subscription, Engine) {
	sub, engine := c.sub, c.engine
	c.sub, c.engine, c.rendition = nil, nil, nil
	return sub, engine
}

// destroy unsubscribes before releasing the engine.
func (c *Controller) destroy(engine Engine, sub Subscription, log *slog.Logger) error {
	if sub != nil {
		sub.Unsubscribe()
	}
	if engine == nil {
		return nil
	}
	if err := engine.Destroy(); err != nil {
		log.Warn("failed to release reader engine", "error", err)
		return fmt.Errorf("destroy engine: %w", err)
	}
	log.Debug("reader engine released")
	return nil
}
