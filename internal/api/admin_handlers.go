package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "adminStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/stats",
		Summary:     "Dashboard counts",
		Description: "Returns user, book, post and comment counts (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/users",
		Summary:     "List users",
		Description: "Returns every account, newest first (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID:   "adminCreateUser",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/users",
		Summary:       "Create user",
		Description:   "Creates an account (admin only)",
		Tags:          []string{"Admin"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAdminCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminUpdateUser",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/users/{id}",
		Summary:     "Update user",
		Description: "Edits an account; an empty password keeps the current one (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminUpdateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminDeleteUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/users/{id}",
		Summary:     "Delete user",
		Description: "Deletes an account and everything it wrote (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminDeleteUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminListBookDiscussions",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/books",
		Summary:     "List book discussions",
		Description: "Returns every book with its post and comment counts (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "adminDeleteBookDiscussions",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/books/{id}/discussions",
		Summary:     "Delete book discussions",
		Description: "Deletes every post about a book (admin only)",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminDeleteDiscussions)
}

// === DTOs ===

// StatsOutput wraps the dashboard counts for Huma.
type StatsOutput struct {
	Body *domain.AdminStats
}

// UsersResponse contains a list of users.
type UsersResponse struct {
	Users []UserResponse `json:"users" doc:"Users, newest first"`
}

// UsersOutput wraps the user list for Huma.
type UsersOutput struct {
	Body UsersResponse
}

// AdminCreateUserRequest is the request body for creating an account.
type AdminCreateUserRequest struct {
	Name            string      `json:"name" doc:"Login name, 5-10 letters"`
	Nickname        string      `json:"nickname" doc:"Nickname, 5-10 characters"`
	Role            domain.Role `json:"role" enum:"USER,ADMIN" doc:"Role"`
	Password        string      `json:"password" doc:"Password, at least 4 characters"`
	ConfirmPassword string      `json:"confirm_password" doc:"Must equal password"`
}

// AdminCreateUserInput wraps the create user request for Huma.
type AdminCreateUserInput struct {
	Authorization string `header:"Authorization"`
	Body          AdminCreateUserRequest
}

// AdminUpdateUserRequest is the request body for editing an account.
type AdminUpdateUserRequest struct {
	Name     string      `json:"name" doc:"Login name, 5-10 letters"`
	Nickname string      `json:"nickname" doc:"Nickname, 5-10 characters"`
	Role     domain.Role `json:"role" enum:"USER,ADMIN" doc:"Role"`
	Password string      `json:"password,omitempty" doc:"New password; empty keeps the current one"`
}

// AdminUpdateUserInput wraps the update user request for Huma.
type AdminUpdateUserInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"User ID"`
	Body          AdminUpdateUserRequest
}

// UserIDInput identifies a user.
type UserIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"User ID"`
}

// DiscussionsResponse lists books with their discussion size.
type DiscussionsResponse struct {
	Books []domain.BookDiscussion `json:"books" doc:"Books, newest first"`
}

// DiscussionsOutput wraps the discussion list for Huma.
type DiscussionsOutput struct {
	Body DiscussionsResponse
}

// DeletedResponse reports how many records were removed.
type DeletedResponse struct {
	Deleted int `json:"deleted" doc:"Number of posts deleted"`
}

// DeletedOutput wraps the deletion count for Huma.
type DeletedOutput struct {
	Body DeletedResponse
}

// === Handlers ===

func (s *Server) handleAdminStats(ctx context.Context, input *AuthenticatedInput) (*StatsOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	stats, err := s.services.Admin.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: stats}, nil
}

func (s *Server) handleAdminListUsers(ctx context.Context, input *AuthenticatedInput) (*UsersOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	users, err := s.services.Admin.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = newUserResponse(u)
	}
	return &UsersOutput{Body: UsersResponse{Users: resp}}, nil
}

func (s *Server) handleAdminCreateUser(ctx context.Context, input *AdminCreateUserInput) (*UserOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	user, err := s.services.Admin.CreateUser(ctx, service.CreateUserRequest{
		Name:            input.Body.Name,
		Nickname:        input.Body.Nickname,
		Role:            input.Body.Role,
		Password:        input.Body.Password,
		ConfirmPassword: input.Body.ConfirmPassword,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: newUserResponse(user)}, nil
}

func (s *Server) handleAdminUpdateUser(ctx context.Context, input *AdminUpdateUserInput) (*UserOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	user, err := s.services.Admin.UpdateUser(ctx, input.ID, service.UpdateUserRequest{
		Name:     input.Body.Name,
		Nickname: input.Body.Nickname,
		Role:     input.Body.Role,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: newUserResponse(user)}, nil
}

func (s *Server) handleAdminDeleteUser(ctx context.Context, input *UserIDInput) (*struct{}, error) {
	admin, err := s.authenticateAndRequireAdmin(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Admin.DeleteUser(ctx, admin.ID, input.ID)
}

func (s *Server) handleAdminListBooks(ctx context.Context, input *AuthenticatedInput) (*DiscussionsOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	books, err := s.services.Admin.BookDiscussions(ctx)
	if err != nil {
		return nil, err
	}
	return &DiscussionsOutput{Body: DiscussionsResponse{Books: books}}, nil
}

func (s *Server) handleAdminDeleteDiscussions(ctx context.Context, input *BookIDInput) (*DeletedOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	n, err := s.services.Admin.DeleteBookDiscussions(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &DeletedOutput{Body: DeletedResponse{Deleted: n}}, nil
}
