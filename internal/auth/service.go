package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/repository"
)

var (
	ErrMissingSecret  = errors.New("jwt secret not configured")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
)

// Claims issued by the identity provider. user_id is accepted as a fallback
// subject for tokens minted by older clients.
type Claims struct {
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns sub, falling back to user_id
func (c *Claims) SubjectID() string {
	if c.RegisteredClaims.Subject != "" {
		return c.RegisteredClaims.Subject
	}
	return c.UserID
}

// Service verifies identity-provider tokens and mirrors the caller locally
type Service struct {
	jwtSecret []byte
	users     repository.UserRepository
}

// NewService creates a new authentication service; users may be nil, in
// which case identities come from the token alone.
func NewService(jwtSecret []byte, users repository.UserRepository) *Service {
	return &Service{jwtSecret: jwtSecret, users: users}
}

// ValidateToken verifies an HS256 token and returns the caller.
// The admin flag is the OR of the token claim and the local record.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ParseClaims(tokenString)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:          claims.SubjectID(),
		Email:       claims.Email,
		DisplayName: claims.Name,
	}
	if s.users == nil {
		user.IsAdmin = claims.IsAdmin
		return user, nil
	}

	stored, err := s.users.Touch(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to record user: %w", err)
	}
	stored.IsAdmin = stored.IsAdmin || claims.IsAdmin
	return stored, nil
}

// ParseClaims verifies the signature and expiry of tokenString
func (s *Service) ParseClaims(tokenString string) (*Claims, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SubjectID() == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// GenerateToken signs a token for user, mirroring what the identity
// provider issues. Used by tooling and tests.
func (s *Service) GenerateToken(user *models.User, ttl time.Duration) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	claims := Claims{
		Email:   user.Email,
		Name:    user.DisplayName,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
