package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
)

// SessionTokenDuration is the lifetime of the auth-token cookie.
const SessionTokenDuration = 7 * 24 * time.Hour

// userNamespace seeds the stable per-email user ids.
var userNamespace = uuid.MustParse("5b0e7c3a-9d1f-4a55-8a57-2f1f6c0b9e41")

// Claims is the signed session payload.
type Claims struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	CommentAccess bool   `json:"commentAccess"`
	jwt.RegisteredClaims
}

func (c *Claims) User() models.SessionUser {
	return models.SessionUser{
		ID:            c.UserID,
		Email:         c.Email,
		Name:          c.Name,
		Role:          c.Role,
		CommentAccess: c.CommentAccess,
	}
}

// UserIDForEmail derives the same user id for every login of an email.
func UserIDForEmail(email string) string {
	return uuid.NewSHA1(userNamespace, []byte(models.NormalizeEmail(email))).String()
}

// NewClaims builds session claims for an allow-list user.
func NewClaims(user *models.User) *Claims {
	return &Claims{
		UserID:        UserIDForEmail(user.Email),
		Email:         user.Email,
		Name:          user.DisplayName(),
		Role:          user.Role,
		CommentAccess: user.HasCommentAccess(),
	}
}

// GenerateSessionToken signs claims with HS256 and sets jti/iat/exp.
func GenerateSessionToken(claims *Claims, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	now := time.Now()
	claims.ID = uuid.NewString()
	claims.Subject = claims.UserID
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifySessionToken parses and validates a session token. Only HS256 is accepted.
func VerifySessionToken(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
