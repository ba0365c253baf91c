package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/traustid/arosenius-api/internal/core/domain"
)

// fakeAuthenticator verifies against plain strings, for service tests.
type fakeAuthenticator struct {
	failToken bool
}

func (f fakeAuthenticator) VerifyPassword(password, hash string) bool {
	return password == hash
}

func (f fakeAuthenticator) GenerateToken(username string) (string, error) {
	if f.failToken {
		return "", errors.New("signing failed")
	}
	return "token-for-" + username, nil
}

func (f fakeAuthenticator) ParseToken(token string) (string, error) {
	if token == "token-for-admin" {
		return "admin", nil
	}
	return "", errors.New("bad token")
}

func TestAuthService_Login(t *testing.T) {
	svc := NewAuthService(fakeAuthenticator{}, "admin", "hunter2", slog.Default())

	token, err := svc.Login(context.Background(), "admin", "hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "token-for-admin" {
		t.Errorf("unexpected token %q", token)
	}
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(fakeAuthenticator{}, "admin", "hunter2", slog.Default())

	cases := []struct{ username, password string }{
		{"admin", "wrong"},
		{"somebody", "hunter2"},
		{"", ""},
	}
	for _, tc := range cases {
		_, err := svc.Login(context.Background(), tc.username, tc.password)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("login(%q, %q): expected ErrUnauthorized, got %v", tc.username, tc.password, err)
		}
	}
}

func TestAuthService_Verify(t *testing.T) {
	svc := NewAuthService(fakeAuthenticator{}, "admin", "hunter2", slog.Default())

	username, err := svc.Verify(context.Background(), "token-for-admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if username != "admin" {
		t.Errorf("unexpected username %q", username)
	}

	_, err = svc.Verify(context.Background(), "garbage")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
