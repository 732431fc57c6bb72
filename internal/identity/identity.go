package identity

import (
	"context"
	"errors"
)

// Identity is what the external auth provider resolves from an opaque
// credential. Role here is only a hint carried in the credential; admin
// gating always re-checks the user store.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

var ErrInvalidCredential = errors.New("invalid or expired credential")

// Provider abstracts the external auth provider. There is exactly one
// resolution path; no environment-conditioned bypass exists.
type Provider interface {
	ResolveIdentity(ctx context.Context, credential string) (Identity, error)
}
