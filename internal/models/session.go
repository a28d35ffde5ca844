package models

// SessionUser is the user object carried by the session and returned by the
// login and auth-check endpoints.
type SessionUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	CommentAccess bool   `json:"commentAccess"`
}
