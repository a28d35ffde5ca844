package annotation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
)

// HTTPBackend talks to the REST API. The session cookie lives in the client's
// cookie jar.
type HTTPBackend struct {
	base   *url.URL
	client *http.Client
}

// envelope mirrors the server's JSON response wrapper.
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Data    T      `json:"data"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

// NewHTTPBackend builds a client with a fresh cookie jar when client is nil.
func NewHTTPBackend(baseURL string, client *http.Client) (*HTTPBackend, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		client = &http.Client{Jar: jar}
	}
	return &HTTPBackend{base: base, client: client}, nil
}

type LoginResult struct {
	User      models.SessionUser `json:"user"`
	IsNewUser bool               `json:"isNewUser"`
}

// Login signs in with email and password. A first-time user may leave the
// password empty.
func (b *HTTPBackend) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out envelope[LoginResult]
	if err := b.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (b *HTTPBackend) Logout(ctx context.Context) error {
	return b.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

func (b *HTTPBackend) CheckAuth(ctx context.Context) (*models.SessionUser, error) {
	var out envelope[struct {
		Authenticated bool                `json:"authenticated"`
		User          *models.SessionUser `json:"user"`
	}]
	if err := b.do(ctx, http.MethodGet, "/api/auth/check", nil, nil, &out); err != nil {
		return nil, err
	}
	if !out.Data.Authenticated || out.Data.User == nil {
		return nil, ErrNotAuthenticated
	}
	return out.Data.User, nil
}

func (b *HTTPBackend) ListComments(ctx context.Context, path string) ([]models.Comment, error) {
	var out envelope[struct {
		Comments []models.Comment `json:"comments"`
	}]
	q := url.Values{"path": {path}}
	if err := b.do(ctx, http.MethodGet, "/api/comments", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data.Comments, nil
}

func (b *HTTPBackend) SaveComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	var out envelope[models.Comment]
	if err := b.do(ctx, http.MethodPost, "/api/comments", nil, c, &out); err != nil {
		return models.Comment{}, err
	}
	return out.Data, nil
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *b.base
	u.Path = b.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var fail envelope[json.RawMessage]
		_ = json.NewDecoder(resp.Body).Decode(&fail)
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: fail.Code, Message: fail.Message}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrNotAuthenticated, apiErr)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrNoPermission, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
