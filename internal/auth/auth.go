// Package auth issues and verifies bearer tokens for the back office and
// exposes the login endpoint.
package auth

import (
	"context"
	"errors"
	"slices"
)

// ErrInvalidCredentials is returned when a username/password pair or a token
// does not check out.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Principal identifies the caller behind a verified token.
type Principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// HasRole reports whether the principal holds one of roles.
func (p Principal) HasRole(roles ...string) bool {
	return slices.Contains(roles, p.Role)
}

// Authenticator verifies a raw bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
