package auth

import (
	"context"
	"sync"

	"github.com/hearthstay/server/internal/models"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is a mock implementation of TokenValidator for testing.
// Tokens listed in Users map to that user; anything else is rejected.
type MockAuthService struct {
	mu sync.Mutex

	Calls []MockCall

	ValidateTokenFunc func(tokenString string) (*models.User, error)

	// Pre-configured users for testing, keyed by token
	Users map[string]*models.User
}

// NewMockAuthService creates a new mock auth service
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls: make([]MockCall, 0),
		Users: make(map[string]*models.User),
	}
}

// AddUser registers token as authenticating user
func (m *MockAuthService) AddUser(token string, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[token] = user
}

// GetCalls returns all recorded calls (thread-safe)
func (m *MockAuthService) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

func (m *MockAuthService) ValidateToken(_ context.Context, tokenString string) (*models.User, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "ValidateToken", Args: []interface{}{tokenString}})
	fn := m.ValidateTokenFunc
	user, ok := m.Users[tokenString]
	m.mu.Unlock()

	if fn != nil {
		return fn(tokenString)
	}
	if !ok {
		return nil, ErrInvalidToken
	}
	return user, nil
}

var _ TokenValidator = (*MockAuthService)(nil)
