package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfside/shelfside/internal/auth"
	"github.com/shelfside/shelfside/internal/domain"
	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/id"
	"github.com/shelfside/shelfside/internal/store/sqlite"
	"github.com/shelfside/shelfside/internal/validation"
)

// AdminService backs the moderation dashboard.
type AdminService struct {
	store     *sqlite.Store
	books     *BookService
	validator *validation.Validator
	logger    *slog.Logger
	now       Clock
}

// NewAdminService creates an admin service.
func NewAdminService(st *sqlite.Store, books *BookService, v *validation.Validator, logger *slog.Logger) *AdminService {
	return &AdminService{store: st, books: books, validator: v, logger: logger, now: time.Now}
}

// CreateUserRequest is an account created by an admin.
type CreateUserRequest struct {
	Name            string      `json:"name" validate:"required,min=5,max=10,letters"`
	Nickname        string      `json:"nickname" validate:"required,min=5,max=10,notblank"`
	Role            domain.Role `json:"role" validate:"required,oneof=USER ADMIN"`
	Password        string      `json:"password" validate:"required,min=4,max=1024"`
	ConfirmPassword string      `json:"confirm_password" validate:"required,eqfield=Password"`
}

// UpdateUserRequest edits an account. An empty Password keeps the current one.
type UpdateUserRequest struct {
	Name     string      `json:"name" validate:"required,min=5,max=10,letters"`
	Nickname string      `json:"nickname" validate:"required,min=5,max=10,notblank"`
	Role     domain.Role `json:"role" validate:"required,oneof=USER ADMIN"`
	Password string      `json:"password,omitempty" validate:"omitempty,min=4,max=1024"`
}

// Stats returns the dashboard counts.
func (s *AdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	return s.store.AdminStats(ctx)
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// CreateUser adds an account.
func (s *AdminService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	req.Nickname = strings.TrimSpace(req.Nickname)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	taken, err := s.store.NameTaken(ctx, req.Name, "")
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if taken {
		return nil, domainerrors.AlreadyExists("Username already exists")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate(id.PrefixUser), CreatedAt: now, UpdatedAt: now},
		Name:         req.Name,
		Nickname:     req.Nickname,
		Role:         req.Role,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("user created by admin", "user_id", user.ID, "name", user.Name, "role", user.Role)
	return user, nil
}

// UpdateUser edits the account with userID. The name must stay unique.
func (s *AdminService) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*domain.User, error) {
	req.Nickname = strings.TrimSpace(req.Nickname)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err)
	}

	taken, err := s.store.NameTaken(ctx, req.Name, userID)
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if taken {
		return nil, domainerrors.AlreadyExists("Username already exists")
	}

	user.Name = req.Name
	user.Nickname = req.Nickname
	user.Role = req.Role
	if req.Password != "" {
		if user.PasswordHash, err = auth.HashPassword(req.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	user.UpdatedAt = s.now()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("user updated by admin", "user_id", user.ID, "password_changed", req.Password != "")
	return user, nil
}

// DeleteUser removes an account and everything it wrote. Admins cannot
// delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return domainerrors.Conflict("You cannot delete your own account")
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return translateStoreError(err)
	}
	s.logger.Info("user deleted by admin", "user_id", userID, "by", actorID)
	return nil
}

// BookDiscussions lists every book with its post and comment counts.
func (s *AdminService) BookDiscussions(ctx context.Context) ([]domain.BookDiscussion, error) {
	out, err := s.store.ListBookDiscussions(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.BookDiscussion{}
	}
	return out, nil
}

// DeleteBookDiscussions removes every post about bookID and returns how many.
func (s *AdminService) DeleteBookDiscussions(ctx context.Context, bookID string) (int, error) {
	if _, err := s.store.GetBook(ctx, bookID, ""); err != nil {
		return 0, translateStoreError(err)
	}
	n, err := s.store.DeleteBookPosts(ctx, bookID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("book discussions deleted", "book_id", bookID, "posts", n)
	return n, nil
}

// DeleteBook removes a book and everything attached to it.
func (s *AdminService) DeleteBook(ctx context.Context, bookID string) error {
	return s.books.Delete(ctx, bookID)
}
