// Package pages holds the HTML templates of the back-office shell, the login
// form and the admin comment list.
package pages

import (
	"embed"
	"html/template"
	"time"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

type Section struct {
	Path  string
	Title string
}

// Sections are the guarded back-office pages.
var Sections = []Section{
	{Path: "/dashboard", Title: "Dashboard"},
	{Path: "/receivables", Title: "Receivables"},
	{Path: "/reports", Title: "Reports"},
	{Path: "/settings", Title: "Settings"},
	{Path: "/apps", Title: "Apps"},
}

type ShellData struct {
	Title       string
	Path        string
	User        models.SessionUser
	CommentMode bool
	Error       string
	Sections    []Section
}

type LoginData struct {
	CallbackURL string
	Error       string
	GoogleLogin bool
}

type AdminCommentsData struct {
	Comments []models.Comment
	User     models.SessionUser
}

// Templates parses the embedded templates. Names are the file names.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	}).ParseFS(templateFS, "templates/*.html")
}

// TitleFor returns the section title for path, or "" when path is not a
// section.
func TitleFor(path string) string {
	for _, s := range Sections {
		if s.Path == path {
			return s.Title
		}
	}
	return ""
}

// ErrorMessage turns the error codes carried in query strings into text.
func ErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "no_comment_access":
		return "You do not have permission to use comment mode."
	case "unauthorized":
		return "This account is not allowed to sign in."
	case "invalid_state":
		return "The sign-in attempt expired. Please try again."
	case "oauth_failed":
		return "Google sign-in failed. Please try again."
	default:
		return "Something went wrong."
	}
}
