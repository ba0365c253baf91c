package driving

import "context"

// AuthService authenticates the administrative user and validates tokens for
// the write surface.
type AuthService interface {
	// Login verifies credentials and issues a bearer token
	Login(ctx context.Context, username, password string) (string, error)

	// Verify validates a bearer token and returns the authenticated username
	Verify(ctx context.Context, token string) (string, error)
}
