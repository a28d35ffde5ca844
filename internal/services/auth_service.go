package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
	"github.com/ephraimVPA/Helfzen-zn/internal/repositories"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

const MinPasswordLength = 8

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrPasswordRequired   = errors.New("password required")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// SignInResult is what a successful login hands to the HTTP layer.
type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.SessionUser
	IsNewUser bool
}

// TokenBlacklist is the optional store for logged-out token ids.
type TokenBlacklist interface {
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	userRepo  *repositories.UserRepository
	blacklist TokenBlacklist
	secret    []byte
	ttl       time.Duration
	log       logrus.FieldLogger
}

// NewAuthService wires the allow-list and token settings. blacklist may be nil.
func NewAuthService(userRepo *repositories.UserRepository, blacklist TokenBlacklist, secret []byte, ttl time.Duration, log logrus.FieldLogger) *AuthService {
	if ttl <= 0 {
		ttl = utils.SessionTokenDuration
	}
	return &AuthService{
		userRepo:  userRepo,
		blacklist: blacklist,
		secret:    secret,
		ttl:       ttl,
		log:       log,
	}
}

// SignIn authenticates against the allow-list. A user without a stored hash
// may sign in with the email alone; if they supply a password it becomes
// their initial password.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		s.log.WithField("email", email).Info("login rejected: email not on allow-list")
		return nil, ErrUserNotFound
	}

	isNew := user.IsNew()
	switch {
	case isNew && password != "":
		// The password is only a convenience here: a first login succeeds
		// even when it cannot be stored, and the user stays new.
		if err := s.storePassword(ctx, user, password); err != nil {
			s.log.WithError(err).WithField("email", email).Warn("first login: password not stored")
		} else {
			isNew = false
		}
	case isNew:
		s.log.WithField("email", email).Info("first login without password")
	case password == "":
		return nil, ErrPasswordRequired
	default:
		if err := utils.VerifyPassword(user.PasswordHash, password); err != nil {
			s.log.WithField("email", email).Info("login rejected: wrong password")
			return nil, ErrInvalidCredentials
		}
	}

	result, err := s.IssueSession(user)
	if err != nil {
		return nil, err
	}
	result.IsNewUser = isNew
	return result, nil
}

// IssueSession signs a fresh session token for an allow-list user.
func (s *AuthService) IssueSession(user *models.User) (*SignInResult, error) {
	claims := utils.NewClaims(user)
	token, err := utils.GenerateSessionToken(claims, s.secret, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &SignInResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      claims.User(),
	}, nil
}

// SetPassword sets or changes the password of the session's user. When a
// password already exists the current one must match.
func (s *AuthService) SetPassword(ctx context.Context, claims *utils.Claims, currentPassword, newPassword string) error {
	if claims == nil {
		return ErrNotAuthenticated
	}
	if len(strings.TrimSpace(newPassword)) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.IsNew() {
		if err := utils.VerifyPassword(user.PasswordHash, currentPassword); err != nil {
			return ErrInvalidCredentials
		}
	}
	return s.storePassword(ctx, user, newPassword)
}

func (s *AuthService) storePassword(ctx context.Context, user *models.User, password string) error {
	if len(strings.TrimSpace(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := utils.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.Email, hash); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// Check returns the session user with role and comment access re-read from
// the allow-list. When the allow-list cannot be read the token's values are
// kept.
func (s *AuthService) Check(ctx context.Context, claims *utils.Claims) (models.SessionUser, error) {
	if claims == nil {
		return models.SessionUser{}, ErrNotAuthenticated
	}
	current := claims.User()

	user, err := s.userRepo.FindByEmail(ctx, claims.Email)
	if err != nil {
		s.log.WithError(err).WithField("email", claims.Email).Warn("allow-list unavailable, using session claims")
		return current, nil
	}
	if user == nil {
		return models.SessionUser{}, ErrUserNotFound
	}

	current.Role = user.Role
	current.CommentAccess = user.HasCommentAccess()
	return current, nil
}

// Logout blacklists the token id until it would expire. Without a blacklist
// store this is a no-op and the cookie removal alone ends the session.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	if s.blacklist == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.blacklist.Blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// Authenticate verifies a raw session token and rejects blacklisted ids.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*utils.Claims, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	claims, err := utils.VerifySessionToken(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.log.WithError(err).Warn("token blacklist unavailable")
		} else if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrNotAuthenticated)
		}
	}
	return claims, nil
}
