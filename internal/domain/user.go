package domain

import "github.com/shelfside/shelfside/internal/color"

// Role is a user's permission level.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account on the server.
type User struct {
	Record
	Name         string `json:"name"`
	Nickname     string `json:"nickname,omitempty"`
	Role         Role   `json:"role"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	PasswordHash string `json:"-"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the nickname when set, otherwise the login name.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

// CanModify reports whether the user may delete content authored by authorID.
func (u *User) CanModify(authorID string) bool {
	return u.IsAdmin() || u.ID == authorID
}

// UserSummary is the author block embedded in feed items, threads and contributor lists.
type UserSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	// AvatarColor and Initials render a placeholder when AvatarURL is empty.
	AvatarColor string `json:"avatar_color"`
	Initials    string `json:"initials"`
}

// Summary returns the public summary of the user.
func (u *User) Summary() UserSummary {
	name := u.DisplayName()
	return UserSummary{
		ID:          u.ID,
		DisplayName: name,
		AvatarURL:   u.AvatarURL,
		AvatarColor: color.ForUser(u.ID),
		Initials:    color.Initials(name),
	}
}
