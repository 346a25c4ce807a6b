package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfside/shelfside/internal/domain"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get profile",
		Description: "Returns the caller with counts of books opened, posts and comments",
		Tags:        []string{"Profile"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)
}

// ProfileResponse is a user with their activity counts.
type ProfileResponse struct {
	User  UserResponse        `json:"user" doc:"The user"`
	Stats domain.ProfileStats `json:"stats" doc:"Activity counts"`
}

// ProfileOutput wraps the profile for Huma.
type ProfileOutput struct {
	Body ProfileResponse
}

func (s *Server) handleGetProfile(ctx context.Context, input *AuthenticatedInput) (*ProfileOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.Profile.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: ProfileResponse{
		User:  newUserResponse(profile.User),
		Stats: profile.Stats,
	}}, nil
}
