package identity

import (
	"context"
	"errors"
)

// ErrUnknownToken is returned by Resolve for invalid or expired tokens.
var ErrUnknownToken = errors.New("unknown or expired token")

// Resolver maps an opaque session token to the authenticated user.
type Resolver interface {
	// Resolve returns the user behind token, or ErrUnknownToken when the
	// token is invalid or expired.
	Resolve(ctx context.Context, token string) (int64, error)
}

// Oracle answers whether a user currently belongs to a project.
type Oracle interface {
	IsMember(ctx context.Context, userID, projectID int64) (bool, error)
}
