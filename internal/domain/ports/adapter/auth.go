package adapter

import "context"

// Identity is the authenticated principal behind a request.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// TokenVerifier maps a raw credential to an identity or fails with
// domain.ErrUnauthorized.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
