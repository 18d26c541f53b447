package interfaces

import (
	"context"

	"golang.org/x/oauth2"
)

// SessionProvider exposes the active login to the rest of the system. API
// clients and the language reconciler consume this instead of reaching into
// stored state directly.
type SessionProvider interface {
	// Token returns the current bearer token, or an error when no valid
	// session exists.
	Token(ctx context.Context) (*oauth2.Token, error)

	// IsAuthenticated reports whether a usable token is present.
	IsAuthenticated() bool

	// EmailVerified reports whether the account's email has been verified.
	// Interpretation loading is gated on this.
	EmailVerified() bool
}
