package models

import (
	"strings"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is one allow-list row of the Users tab.
// Columns: email, password_hash, name, createdAt, role, commentAccess
type User struct {
	Email         string `json:"email"`
	PasswordHash  string `json:"-"`
	Name          string `json:"name"`
	CreatedAt     string `json:"createdAt"`
	Role          string `json:"role"`
	CommentAccess string `json:"commentAccess"`
}

// Prepare normalizes a row read from the allow-list.
func (u *User) Prepare() {
	u.Email = NormalizeEmail(u.Email)
	if strings.TrimSpace(u.Role) == "" {
		u.Role = RoleUser
	}
	if strings.TrimSpace(u.CommentAccess) == "" {
		u.CommentAccess = "FALSE"
	}
}

// IsNew reports whether the user has never set a password.
func (u *User) IsNew() bool {
	return u.PasswordHash == ""
}

func (u *User) HasCommentAccess() bool {
	return strings.EqualFold(strings.TrimSpace(u.CommentAccess), "TRUE")
}

// DisplayName falls back to the local part of the email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// PublicUser is the sanitized projection returned by debug endpoints.
type PublicUser struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	CommentAccess string `json:"commentAccess"`
	HasPassword   bool   `json:"hasPassword"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		CommentAccess: u.CommentAccess,
		HasPassword:   !u.IsNew(),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
