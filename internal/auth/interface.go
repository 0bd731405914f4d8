package auth

import (
	"context"

	"github.com/hearthstay/server/internal/models"
)

// TokenValidator is what the HTTP layer needs from authentication.
// This enables mocking for unit tests without requiring a real database.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
}

// Ensure Service implements TokenValidator
var _ TokenValidator = (*Service)(nil)
