package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfside/shelfside/internal/auth"
	"github.com/shelfside/shelfside/internal/domain"
	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/media"
)

func validCreate() CreateUserRequest {
	return CreateUserRequest{
		Name:            "reader",
		Nickname:        "Reader",
		Role:            domain.RoleUser,
		Password:        "pw123",
		ConfirmPassword: "pw123",
	}
}

func TestAdminService_CreateUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	u, err := h.admin.CreateUser(ctx, validCreate())
	require.NoError(t, err)
	assert.Equal(t, "Reader", u.Nickname)
	assert.True(t, auth.VerifyPassword(u.PasswordHash, "pw123"))

	_, err = h.admin.CreateUser(ctx, validCreate())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestAdminService_CreateUserValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*CreateUserRequest)
		field string
	}{
		{"short name", func(r *CreateUserRequest) { r.Name = "abc" }, "name"},
		{"long name", func(r *CreateUserRequest) { r.Name = "abcdefghijk" }, "name"},
		{"name with digits", func(r *CreateUserRequest) { r.Name = "reader1" }, "name"},
		{"short nickname", func(r *CreateUserRequest) { r.Nickname = "abc" }, "nickname"},
		{"bad role", func(r *CreateUserRequest) { r.Role = "OWNER" }, "role"},
		{"short password", func(r *CreateUserRequest) { r.Password, r.ConfirmPassword = "abc", "abc" }, "password"},
		{"mismatch", func(r *CreateUserRequest) { r.ConfirmPassword = "other" }, "confirm_password"},
	}
	h := newHarness(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.edit(&req)

			_, err := h.admin.CreateUser(context.Background(), req)
			var de *domainerrors.Error
			require.True(t, domainerrors.As(err, &de))
			assert.Equal(t, domainerrors.CodeValidation, de.Code)
			assert.Contains(t, de.Details, tt.field)
		})
	}
}

func TestAdminService_UpdateUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u, err := h.admin.CreateUser(ctx, validCreate())
	require.NoError(t, err)
	other := validCreate()
	other.Name = "another"
	_, err = h.admin.CreateUser(ctx, other)
	require.NoError(t, err)

	got, err := h.admin.UpdateUser(ctx, u.ID, UpdateUserRequest{Name: "reader", Nickname: "Renamed", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.True(t, auth.VerifyPassword(got.PasswordHash, "pw123"), "empty password keeps the old one")

	got, err = h.admin.UpdateUser(ctx, u.ID, UpdateUserRequest{Name: "reader", Nickname: "Renamed", Role: domain.RoleAdmin, Password: "newpw"})
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(got.PasswordHash, "newpw"))

	_, err = h.admin.UpdateUser(ctx, u.ID, UpdateUserRequest{Name: "another", Nickname: "Renamed", Role: domain.RoleUser})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))

	_, err = h.admin.UpdateUser(ctx, "user-missing", UpdateUserRequest{Name: "nobody", Nickname: "Nobody", Role: domain.RoleUser})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestAdminService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	admin := h.user(t, "admin", domain.RoleAdmin)
	u := h.user(t, "reader", domain.RoleUser)

	assert.True(t, domainerrors.Is(h.admin.DeleteUser(ctx, admin.ID, admin.ID), domainerrors.ErrConflict))
	require.NoError(t, h.admin.DeleteUser(ctx, admin.ID, u.ID))
	assert.True(t, domainerrors.Is(h.admin.DeleteUser(ctx, admin.ID, u.ID), domainerrors.ErrNotFound))
}

func TestAdminService_BookDiscussions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	admin := h.user(t, "admin", domain.RoleAdmin)
	b := h.upload(t, admin, "dune.epub", "dune")

	post, err := h.forum.CreatePost(ctx, admin.ID, CreatePostRequest{Content: "spice talk", BookID: b.ID})
	require.NoError(t, err)
	_, err = h.forum.AddComment(ctx, admin.ID, post.ID, CreateCommentRequest{Content: "more spice"})
	require.NoError(t, err)

	list, err := h.admin.BookDiscussions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].PostCount)
	assert.Equal(t, 1, list[0].CommentCount)

	n, err := h.admin.DeleteBookDiscussions(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := h.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AdminStats{Users: 1, Books: 1}, *st)

	_, err = h.admin.DeleteBookDiscussions(ctx, "book-missing")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestProfileService_GetAndAvatar(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	u := h.user(t, "reader", domain.RoleUser)
	other := h.user(t, "other", domain.RoleUser)
	admin := h.user(t, "admin", domain.RoleAdmin)

	p, err := h.profile.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileStats{}, p.Stats)

	updated, err := h.profile.UpdateAvatar(ctx, u, "", bytes.NewReader(pngImage(t)))
	require.NoError(t, err)
	first := updated.AvatarURL
	assert.Regexp(t, `^/uploads/avatars/`+u.ID+`-\d+\.png$`, first)

	updated, err = h.profile.UpdateAvatar(ctx, admin, u.ID, bytes.NewReader(pngImage(t)))
	require.NoError(t, err)
	assert.NotEqual(t, first, updated.AvatarURL)

	kind, name, ok := media.ParseURL(first)
	require.True(t, ok)
	assert.False(t, h.files.Exists(kind, name), "old avatar removed")

	_, err = h.profile.UpdateAvatar(ctx, other, u.ID, bytes.NewReader(pngImage(t)))
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	_, err = h.profile.UpdateAvatar(ctx, u, "", bytes.NewReader([]byte("definitely not an image")))
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = h.profile.UpdateAvatar(ctx, u, "", bytes.NewReader(nil))
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}
