package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfside/shelfside/internal/auth"
	"github.com/shelfside/shelfside/internal/config"
	"github.com/shelfside/shelfside/internal/logger"
	"github.com/shelfside/shelfside/internal/media"
	"github.com/shelfside/shelfside/internal/service"
	"github.com/shelfside/shelfside/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, v, log.Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	files := do.MustInvoke[*media.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	limits := service.BookLimits{
		MaxBookBytes:  cfg.Uploads.MaxBookBytes,
		MaxCoverBytes: cfg.Uploads.MaxCoverBytes,
	}
	return service.NewBookService(storeHandle.Store, indexHandle.BookIndex, files, limits, log.Logger), nil
}

// ProvideForumService provides the discussion service.
func ProvideForumService(i do.Injector) (*service.ForumService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewForumService(storeHandle.Store, v, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	files := do.MustInvoke[*media.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, files, cfg.Uploads.MaxAvatarBytes, log.Logger), nil
}

// ProvideAdminService provides the admin service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	books := do.MustInvoke[*service.BookService](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, books, v, log.Logger), nil
}
