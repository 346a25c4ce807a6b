package reader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/theme"
)

type testContainer string

func (c testContainer) ID() string { return string(c) }

// fakeFactory hands out fakeEngines and checks that no two are alive at once.
type fakeFactory struct {
	mu         sync.Mutex
	engines    []*fakeEngine
	live       int
	overlapped bool

	openErr    error
	renderErr  error
	displayErr error
	// displayGate, when set, blocks Display until it is closed.
	displayGate    chan struct{}
	displayEntered chan struct{}
}

func (f *fakeFactory) Open(_ context.Context, fileURL string) (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.live > 0 {
		f.overlapped = true
	}
	f.live++
	e := &fakeEngine{factory: f, fileURL: fileURL}
	f.engines = append(f.engines, e)
	return e, nil
}

func (f *fakeFactory) last() *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

func (f *fakeFactory) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

type fakeEngine struct {
	factory   *fakeFactory
	fileURL   string
	mu        sync.Mutex
	destroyed int
	container Container
	layout    LayoutOptions
	rendition *fakeRendition
}

func (e *fakeEngine) RenderTo(container Container, opts LayoutOptions) (Rendition, error) {
	if e.factory.renderErr != nil {
		return nil, e.factory.renderErr
	}
	e.container = container
	e.layout = opts
	e.rendition = &fakeRendition{engine: e, registry: newFakeRegistry(), listeners: map[int]func(string){}}
	return e.rendition, nil
}

func (e *fakeEngine) Destroy() error {
	e.mu.Lock()
	e.destroyed++
	first := e.destroyed == 1
	e.mu.Unlock()

	if first {
		e.factory.mu.Lock()
		e.factory.live--
		e.factory.mu.Unlock()
	}
	// A real engine may still report a relocation while tearing down.
	if e.rendition != nil {
		e.rendition.emit("during-destroy")
	}
	return nil
}

func (e *fakeEngine) destroyCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

type fakeRendition struct {
	engine   *fakeEngine
	registry *fakeRegistry

	mu        sync.Mutex
	listeners map[int]func(string)
	nextID    int
	displayed []string
	page      int
	prevCalls int
	nextCalls int
}

func (r *fakeRendition) Display(ctx context.Context, location string) error {
	r.mu.Lock()
	r.displayed = append(r.displayed, location)
	r.mu.Unlock()

	f := r.engine.factory
	if f.displayEntered != nil {
		close(f.displayEntered)
	}
	if f.displayGate != nil {
		select {
		case <-f.displayGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.displayErr != nil {
		return f.displayErr
	}

	if location == "" {
		location = "epubcfi(/6/2!/4/1:0)"
	}
	r.emit(location)
	return nil
}

func (r *fakeRendition) OnRelocated(fn func(string)) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	return &fakeSubscription{r: r, id: id}
}

func (r *fakeRendition) Prev() error {
	r.mu.Lock()
	r.prevCalls++
	r.page--
	loc := fmt.Sprintf("page-%d", r.page)
	r.mu.Unlock()
	r.emit(loc)
	return nil
}

func (r *fakeRendition) Next() error {
	r.mu.Lock()
	r.nextCalls++
	r.page++
	loc := fmt.Sprintf("page-%d", r.page)
	r.mu.Unlock()
	r.emit(loc)
	return nil
}

func (r *fakeRendition) Themes() theme.Registry { return r.registry }

// emit delivers a relocation synchronously to every listener.
func (r *fakeRendition) emit(location string) {
	r.mu.Lock()
	fns := make([]func(string), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(location)
	}
}

func (r *fakeRendition) listenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

func (r *fakeRendition) displayedLocations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.displayed...)
}

type fakeSubscription struct {
	r  *fakeRendition
	id int
}

func (s *fakeSubscription) Unsubscribe() {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	delete(s.r.listeners, s.id)
}

type fakeRegistry struct {
	mu         sync.Mutex
	registered map[string]theme.StyleRules
	overrides  map[string]string
	selected   string
	fontSize   string

	// selectGate, when set, blocks Select(gatedTheme) until it is closed.
	gatedTheme    string
	selectGate    chan struct{}
	selectEntered chan struct{}
}

// gateSelect makes the next Select(name) block until the returned func is called.
func (g *fakeRegistry) gateSelect(name string) (entered <-chan struct{}, release func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gatedTheme = name
	g.selectGate = make(chan struct{})
	g.selectEntered = make(chan struct{})
	return g.selectEntered, func() { close(g.selectGate) }
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{registered: map[string]theme.StyleRules{}, overrides: map[string]string{}}
}

func (g *fakeRegistry) Register(name string, rules theme.StyleRules) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registered[name] = rules
}

func (g *fakeRegistry) Select(name string) {
	g.mu.Lock()
	gate, entered := g.selectGate, g.selectEntered
	if gate != nil && name == g.gatedTheme {
		g.selectGate, g.selectEntered = nil, nil
		g.mu.Unlock()
		close(entered)
		<-gate
		g.mu.Lock()
	}
	defer g.mu.Unlock()
	g.selected = name
}

func (g *fakeRegistry) Override(property, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.overrides[property] = value
}

func (g *fakeRegistry) FontSize(value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fontSize = value
}

func (g *fakeRegistry) state() (selected, fontSize string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected, g.fontSize
}

// countingStore wraps a ProgressStore and counts saves per book.
type countingStore struct {
	ProgressStore
	mu    sync.Mutex
	saves map[string]int
	last  map[string]domain.ReadingProgress
}

func newCountingStore(inner ProgressStore) *countingStore {
	return &countingStore{ProgressStore: inner, saves: map[string]int{}, last: map[string]domain.ReadingProgress{}}
}

func (s *countingStore) Save(bookID string, p domain.ReadingProgress) {
	s.mu.Lock()
	s.saves[bookID]++
	s.last[bookID] = p
	s.mu.Unlock()
	s.ProgressStore.Save(bookID, p)
}

func (s *countingStore) lastSaved(bookID string) domain.ReadingProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[bookID]
}

func (s *countingStore) count(bookID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[bookID]
}

// fakeTracker records access notifications and signals each one on notified.
type fakeTracker struct {
	mu       sync.Mutex
	calls    [][2]string
	err      error
	notified chan struct{}
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{notified: make(chan struct{}, 8)}
}

func (t *fakeTracker) RecordAccess(_ context.Context, bookID, userID string) error {
	t.mu.Lock()
	t.calls = append(t.calls, [2]string{bookID, userID})
	err := t.err
	t.mu.Unlock()
	t.notified <- struct{}{}
	return err
}

func (t *fakeTracker) recorded() [][2]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][2]string(nil), t.calls...)
}

var errBrokenEPUB = errors.New("broken epub")
