package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfside/shelfside/internal/auth"
	"github.com/shelfside/shelfside/internal/domain"
	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/id"
	"github.com/shelfside/shelfside/internal/store"
	"github.com/shelfside/shelfside/internal/store/sqlite"
	"github.com/shelfside/shelfside/internal/validation"
)

// dummyHash is verified against when a login names an unknown user, so both
// failure paths cost one argon2 derivation.
var dummyHash = func() string {
	h, err := auth.HashPassword("shelfside-dummy-password")
	if err != nil {
		panic(err)
	}
	return h
}()

// AuthService registers users, checks credentials and verifies access tokens.
type AuthService struct {
	store     *sqlite.Store
	tokens    *auth.TokenService
	validator *validation.Validator
	logger    *slog.Logger
	now       Clock
}

// NewAuthService creates an authentication service.
func NewAuthService(st *sqlite.Store, tokens *auth.TokenService, v *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{store: st, tokens: tokens, validator: v, logger: logger, now: time.Now}
}

// RegisterRequest is a self-registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=32,notblank"`
	Password string `json:"password" validate:"required,min=4,max=1024"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Name     string `json:"name" validate:"required,max=32"`
	Password string `json:"password" validate:"required,min=4,max=1024"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// Register creates a USER account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
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
		Role:         domain.RoleUser,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, translateStoreError(err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "name", user.Name)
	return s.issue(user)
}

// Login checks credentials and issues an access token. The error never says
// whether the name or the password was wrong.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByName(ctx, strings.TrimSpace(req.Name))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	hash := dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	if !auth.VerifyPassword(hash, req.Password) || user == nil {
		s.logger.Debug("login failed", "name", req.Name)
		return nil, domainerrors.InvalidCredentials("Invalid name or password")
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return s.issue(user)
}

// VerifyAccessToken returns the user a token was issued to.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("Invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, domainerrors.Unauthorized("User no longer exists")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	return user, claims, nil
}

// CurrentUser returns the user with id.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, AccessToken: token, ExpiresAt: expires}, nil
}
