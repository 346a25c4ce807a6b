package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfside/shelfside/internal/color"
	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates a USER account and returns an access token for it",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        loginPath,
		Summary:     "User login",
		Description: "Authenticates a user by name and password and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)
}

// === DTOs ===

// CredentialsRequest is the request body for registration and login.
type CredentialsRequest struct {
	Name     string `json:"name" doc:"Login name"`
	Password string `json:"password" doc:"Password"`
}

// CredentialsInput wraps the credentials for Huma.
type CredentialsInput struct {
	Body CredentialsRequest
}

// UserResponse contains user information in API responses.
type UserResponse struct {
	ID          string      `json:"id" doc:"User ID"`
	Name        string      `json:"name" doc:"Login name"`
	Nickname    string      `json:"nickname,omitempty" doc:"Nickname"`
	DisplayName string      `json:"display_name" doc:"Nickname, or the login name when unset"`
	Role        domain.Role `json:"role" doc:"USER or ADMIN"`
	AvatarURL   string      `json:"avatar_url,omitempty" doc:"Avatar image URL"`
	AvatarColor string      `json:"avatar_color" doc:"Placeholder background color"`
	Initials    string      `json:"initials" doc:"Placeholder initials"`
	CreatedAt   time.Time   `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time   `json:"updated_at" doc:"Last update timestamp"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Nickname:    u.Nickname,
		DisplayName: u.DisplayName(),
		Role:        u.Role,
		AvatarURL:   u.AvatarURL,
		AvatarColor: color.ForUser(u.ID),
		Initials:    color.Initials(u.DisplayName()),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// AuthResponse contains the access token and the signed-in user.
type AuthResponse struct {
	AccessToken string       `json:"access_token" doc:"PASETO access token"`
	TokenType   string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresAt   time.Time    `json:"expires_at" doc:"Token expiry"`
	User        UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// AuthenticatedInput carries only the Authorization header.
type AuthenticatedInput struct {
	Authorization string `header:"Authorization"`
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body UserResponse
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *CredentialsInput) (*AuthOutput, error) {
	res, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return newAuthOutput(res), nil
}

func (s *Server) handleLogin(ctx context.Context, input *CredentialsInput) (*AuthOutput, error) {
	res, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return newAuthOutput(res), nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *AuthenticatedInput) (*UserOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: newUserResponse(user)}, nil
}

func newAuthOutput(res *service.AuthResult) *AuthOutput {
	return &AuthOutput{Body: AuthResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt,
		User:        newUserResponse(res.User),
	}}
}
