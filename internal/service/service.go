// Package service holds the business logic behind the HTTP API: accounts,
// books, the forum, profiles and moderation.
package service

import (
	"errors"
	"time"

	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/store"
)

// Clock returns the current time. Services take one so tests can pin time.
type Clock func() time.Time

// translateStoreError turns store sentinel errors into domain errors so the
// API maps them consistently.
func translateStoreError(err error) error {
	var se *store.Error
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(se.Message)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(se.Message)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(se.Message)
	}
	return err
}
