package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfside/shelfside/internal/errors"
	"github.com/shelfside/shelfside/internal/validation"
)

type createUserRequest struct {
	Name            string `json:"name" validate:"required,min=5,max=10,letters"`
	Nickname        string `json:"nickname" validate:"required,min=5,max=10"`
	Role            string `json:"role" validate:"required,oneof=USER ADMIN"`
	Password        string `json:"password" validate:"required,min=4"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type postRequest struct {
	Content string `json:"content" validate:"notblank,min=3"`
}

func validUser() createUserRequest {
	return createUserRequest{Name: "reader", Nickname: "Bookish", Role: "USER", Password: "pw123", ConfirmPassword: "pw123"}
}

func TestValidate_Success(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(validUser()))
	assert.NoError(t, v.Validate(postRequest{Content: "Loved chapter three"}))
}

func TestValidate_FieldDetails(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		mutate  func(*createUserRequest)
		field   string
		message string
	}{
		{"name too short", func(r *createUserRequest) { r.Name = "abc" }, "name", "must be at least 5 characters"},
		{"name too long", func(r *createUserRequest) { r.Name = "abcdefghijk" }, "name", "must not exceed 10 characters"},
		{"name with digits", func(r *createUserRequest) { r.Name = "reader1" }, "name", "must contain only letters"},
		{"nickname missing", func(r *createUserRequest) { r.Nickname = "" }, "nickname", "is required"},
		{"bad role", func(r *createUserRequest) { r.Role = "ROOT" }, "role", "must be one of: USER ADMIN"},
		{"mismatched confirmation", func(r *createUserRequest) { r.ConfirmPassword = "other" }, "confirm_password", "must match Password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validUser()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			var de *domainerrors.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, domainerrors.CodeValidation, de.Code)
			details, ok := de.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.message, details[tt.field])
		})
	}
}

func TestValidate_NotBlank(t *testing.T) {
	v := validation.New()
	err := v.Validate(postRequest{Content: "     "})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}
