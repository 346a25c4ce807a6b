package reader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type panickyTracker struct{}

func (panickyTracker) RecordAccess(context.Context, string, string) error {
	panic("tracker exploded")
}

type slowTracker struct {
	deadline chan time.Time
}

func (s slowTracker) RecordAccess(ctx context.Context, _, _ string) error {
	d, _ := ctx.Deadline()
	s.deadline <- d
	return nil
}

func TestAccessRecorder_NilTrackerCompletesImmediately(t *testing.T) {
	r := NewAccessRecorder(nil, nil)

	select {
	case <-r.Record("book-1", "user-1"):
	default:
		t.Fatal("expected closed channel")
	}
}

func TestAccessRecorder_PanicIsContained(t *testing.T) {
	r := NewAccessRecorder(panickyTracker{}, nil)

	select {
	case <-r.Record("book-1", "user-1"):
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not finish")
	}
}

func TestAccessRecorder_UsesTimeout(t *testing.T) {
	tracker := slowTracker{deadline: make(chan time.Time, 1)}
	r := NewAccessRecorder(tracker, nil)
	r.timeout = time.Minute

	start := time.Now()
	<-r.Record("book-1", "user-1")

	d := <-tracker.deadline
	assert.WithinDuration(t, start.Add(time.Minute), d, 5*time.Second)
}
