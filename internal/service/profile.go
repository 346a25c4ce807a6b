package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shelfside/shelfside/internal/domain"
	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/media"
	"github.com/shelfside/shelfside/internal/store/sqlite"
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ProfileService serves a user's own page and avatar.
type ProfileService struct {
	store          *sqlite.Store
	files          *media.Storage
	maxAvatarBytes int64
	logger         *slog.Logger
	now            Clock
}

// NewProfileService creates a profile service.
func NewProfileService(st *sqlite.Store, files *media.Storage, maxAvatarBytes int64, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: st, files: files, maxAvatarBytes: maxAvatarBytes, logger: logger, now: time.Now}
}

// Get returns the user with their activity counts.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	stats, err := s.store.ProfileStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{User: user, Stats: *stats}, nil
}

// UpdateAvatar replaces targetID's avatar with the image in r. Users may
// change their own avatar; admins may change anyone's. The previous file is
// deleted best-effort.
func (s *ProfileService) UpdateAvatar(ctx context.Context, actor *domain.User, targetID string, r io.Reader) (*domain.User, error) {
	if targetID == "" {
		targetID = actor.ID
	}
	if actor.ID != targetID && !actor.IsAdmin() {
		return nil, domainerrors.Forbidden("You can only change your own avatar")
	}

	user, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, translateStoreError(err)
	}

	limit := s.maxAvatarBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	switch {
	case len(data) == 0:
		return nil, domainerrors.Validation("No image provided")
	case int64(len(data)) > limit:
		return nil, domainerrors.Validationf("Avatar exceeds %d bytes", limit)
	}

	mime := media.DetectImageType(data)
	if mime == "" {
		return nil, domainerrors.Validation("Invalid image format. Supported formats: JPEG, PNG, WebP, GIF")
	}

	// Avatars are served with long cache lifetimes, so every upload needs a new URL.
	stamp := s.now().UnixMilli()
	name := fmt.Sprintf("%s-%d%s", user.ID, stamp, imageExt[mime])
	if media.URL(media.KindAvatars, name) == user.AvatarURL {
		name = fmt.Sprintf("%s-%d%s", user.ID, stamp+1, imageExt[mime])
	}
	stored, err := s.files.Save(media.KindAvatars, name, bytes.NewReader(data), 0)
	if err != nil {
		return nil, fmt.Errorf("save avatar: %w", err)
	}

	old := user.AvatarURL
	user.AvatarURL = stored.URL
	user.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if rmErr := s.files.Delete(media.KindAvatars, name); rmErr != nil {
			s.logger.Warn("failed to remove new avatar after update error", "error", rmErr)
		}
		return nil, translateStoreError(err)
	}

	if old != "" {
		if err := s.files.DeleteByURL(old); err != nil {
			s.logger.Warn("failed to delete old avatar", "user_id", user.ID, "url", old, "error", err)
		}
	}

	s.logger.Info("avatar updated", "user_id", user.ID, "by", actor.ID, "format", mime)
	return user, nil
}
