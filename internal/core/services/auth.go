package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// Authenticator abstracts password verification and token handling.
type Authenticator interface {
	VerifyPassword(password, hash string) bool
	GenerateToken(username string) (string, error)
	ParseToken(token string) (string, error)
}

// authService authenticates the single administrative account configured at
// startup. There is no user store; the archive has one editorial login.
type authService struct {
	auth         Authenticator
	username     string
	passwordHash string
	logger       *slog.Logger
}

// NewAuthService creates a new AuthService for the configured admin account.
func NewAuthService(auth Authenticator, username, passwordHash string, logger *slog.Logger) driving.AuthService {
	return &authService{
		auth:         auth,
		username:     username,
		passwordHash: passwordHash,
		logger:       logger,
	}
}

// Login verifies credentials and issues a bearer token
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	if username != s.username || !s.auth.VerifyPassword(password, s.passwordHash) {
		s.logger.Warn("failed login attempt", "username", username)
		return "", domain.ErrUnauthorized
	}

	token, err := s.auth.GenerateToken(username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// Verify validates a bearer token and returns the authenticated username
func (s *authService) Verify(ctx context.Context, token string) (string, error) {
	username, err := s.auth.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return username, nil
}
