package services

import (
	"strings"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewAuthService("test-secret", SMTPConfig{})

	token, err := s.CreateJWT("user-1", "fox@example.com", true)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	claims, err := s.VerifyJWT(token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("userId = %q, want user-1", claims.UserID)
	}
	if claims.Email != "fox@example.com" {
		t.Fatalf("email = %q, want fox@example.com", claims.Email)
	}
	if !claims.IsAdmin {
		t.Fatal("isAdmin not carried through")
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewAuthService("secret-a", SMTPConfig{}).CreateJWT("user-1", "fox@example.com", false)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	if _, err := NewAuthService("secret-b", SMTPConfig{}).VerifyJWT(token); err == nil {
		t.Fatal("token signed with a different secret was accepted")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	t.Parallel()

	s := NewAuthService("test-secret", SMTPConfig{})
	if _, err := s.VerifyJWT("not-a-token"); err == nil {
		t.Fatal("garbage token was accepted")
	}
}

func TestMagicLinkIsOneTimeUse(t *testing.T) {
	t.Parallel()

	s := NewAuthService("test-secret", SMTPConfig{})

	link, err := s.GenerateMagicLink("fox@example.com", "http://localhost:3001")
	if err != nil {
		t.Fatalf("failed to generate magic link: %v", err)
	}

	i := strings.Index(link, "token=")
	if i < 0 {
		t.Fatalf("magic link carries no token: %s", link)
	}
	token := link[i+len("token="):]

	email, err := s.VerifyMagicLinkToken(token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	if email != "fox@example.com" {
		t.Fatalf("email = %q, want fox@example.com", email)
	}

	if _, err := s.VerifyMagicLinkToken(token); err == nil {
		t.Fatal("token was accepted twice")
	}
}
