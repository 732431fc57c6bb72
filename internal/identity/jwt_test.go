package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/learnstack/learnhub/internal/identity"
)

func TestJWTProviderRoundTrip(t *testing.T) {
	p := identity.NewJWTProvider("test-secret", 15*time.Minute)

	token, err := p.IssueToken("user-123", "ada@example.com", "Ada", "student")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	id, err := p.ResolveIdentity(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve identity: %v", err)
	}

	if id.UserID != "user-123" {
		t.Fatalf("got user id %q, want user-123", id.UserID)
	}
	if id.Email != "ada@example.com" || id.Name != "Ada" || id.Role != "student" {
		t.Fatalf("claims not carried through: %+v", id)
	}
}

func TestJWTProviderRejectsWrongSecret(t *testing.T) {
	issuer := identity.NewJWTProvider("secret-a", 15*time.Minute)
	verifier := identity.NewJWTProvider("secret-b", 15*time.Minute)

	token, err := issuer.IssueToken("user-123", "a@example.com", "A", "student")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	_, err = verifier.ResolveIdentity(context.Background(), token)
	if !errors.Is(err, identity.ErrInvalidCredential) {
		t.Fatalf("got %v, want ErrInvalidCredential", err)
	}
}

func TestJWTProviderRejectsExpiredToken(t *testing.T) {
	p := identity.NewJWTProvider("test-secret", -time.Minute)

	token, err := p.IssueToken("user-123", "a@example.com", "A", "student")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	_, err = p.ResolveIdentity(context.Background(), token)
	if !errors.Is(err, identity.ErrInvalidCredential) {
		t.Fatalf("got %v, want ErrInvalidCredential", err)
	}
}

func TestJWTProviderRejectsGarbage(t *testing.T) {
	p := identity.NewJWTProvider("test-secret", 15*time.Minute)

	for _, credential := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		if _, err := p.ResolveIdentity(context.Background(), credential); !errors.Is(err, identity.ErrInvalidCredential) {
			t.Fatalf("credential %q: got %v, want ErrInvalidCredential", credential, err)
		}
	}
}
