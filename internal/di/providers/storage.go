package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfside/shelfside/internal/config"
	"github.com/shelfside/shelfside/internal/logger"
	"github.com/shelfside/shelfside/internal/media"
)

// ProvideFileStorage provides storage for uploaded books, covers and avatars.
func ProvideFileStorage(i do.Injector) (*media.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	files, err := media.NewStorage(cfg.Data.UploadsPath)
	if err != nil {
		return nil, err
	}

	log.Info("Upload storage initialized", "path", files.Root())
	return files, nil
}
