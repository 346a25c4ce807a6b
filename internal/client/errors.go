package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for Shelfside API calls.
var (
	ErrNotSignedIn  = errors.New("shelfside: not signed in as that user")
	ErrUnauthorized = errors.New("shelfside: unauthorized")
	ErrNotFound     = errors.New("shelfside: not found")
	ErrRateLimited  = errors.New("shelfside: rate limited by server")
	ErrBadRequest   = errors.New("shelfside: bad request")
	ErrServer       = errors.New("shelfside: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // "login", "recordAccess"
	BookID string // If applicable
	Err    error
}

func (e *Error) Error() string {
	if e.BookID != "" {
		return fmt.Sprintf("shelfside %s [%s]: %v", e.Op, e.BookID, e.Err)
	}
	return fmt.Sprintf("shelfside %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
