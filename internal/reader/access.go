package reader

import (
	"context"
	"log/slog"
	"time"
)

const defaultAccessTimeout = 10 * time.Second

// AccessRecorder notifies an AccessTracker in the background. Failures are
// logged and never reach the session.
type AccessRecorder struct {
	tracker AccessTracker
	logger  *slog.Logger
	timeout time.Duration
}

// NewAccessRecorder creates a recorder over tracker.
func NewAccessRecorder(tracker AccessTracker, logger *slog.Logger) *AccessRecorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AccessRecorder{tracker: tracker, logger: logger, timeout: defaultAccessTimeout}
}

// Record starts a background notification that userID opened bookID and
// returns a channel closed once it has finished. Nothing is sent when there
// is no tracker or no user.
func (r *AccessRecorder) Record(bookID, userID string) <-chan struct{} {
	done := make(chan struct{})
	if r == nil || r.tracker == nil || userID == "" {
		close(done)
		return done
	}

	go func() {
		defer close(done)
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("access tracker panicked", "book_id", bookID, "panic", p)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.tracker.RecordAccess(ctx, bookID, userID); err != nil {
			r.logger.Warn("failed to record book access", "book_id", bookID, "user_id", userID, "error", err)
			return
		}
		r.logger.Debug("book access recorded", "book_id", bookID, "user_id", userID)
	}()
	return done
}
