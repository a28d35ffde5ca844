package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/ephraimVPA/Helfzen-zn/internal/repositories"
)

const oauthGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	ErrOAuthExchange    = errors.New("oauth code exchange failed")
	ErrEmailNotVerified = errors.New("email is not verified by Google")
)

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type GoogleAuthService struct {
	oauth       *oauth2.Config
	userRepo    *repositories.UserRepository
	auth        *AuthService
	userInfoURL string
	log         logrus.FieldLogger
}

func NewGoogleAuthService(oauth *oauth2.Config, userRepo *repositories.UserRepository, auth *AuthService, log logrus.FieldLogger) *GoogleAuthService {
	return &GoogleAuthService{
		oauth:       oauth,
		userRepo:    userRepo,
		auth:        auth,
		userInfoURL: oauthGoogleUserInfoURL,
		log:         log,
	}
}

func (s *GoogleAuthService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Callback exchanges the code and signs the user in if their Google email is
// on the allow-list. Unknown emails get ErrUserNotFound; accounts are never
// created here.
func (s *GoogleAuthService) Callback(ctx context.Context, code string) (*SignInResult, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	googleUser, err := s.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if !googleUser.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}

	user, err := s.userRepo.FindByEmail(ctx, googleUser.Email)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		s.log.WithField("email", googleUser.Email).Warn("google login rejected: email not on allow-list")
		return nil, ErrUserNotFound
	}
	if user.Name == "" {
		user.Name = googleUser.Name
	}

	return s.auth.IssueSession(user)
}

func (s *GoogleAuthService) fetchUser(ctx context.Context, token *oauth2.Token) (*GoogleUser, error) {
	client := s.oauth.Client(ctx, token)
	client.Timeout = 10 * time.Second

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", response.StatusCode)
	}

	var googleUser GoogleUser
	if err := json.Unmarshal(body, &googleUser); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &googleUser, nil
}
