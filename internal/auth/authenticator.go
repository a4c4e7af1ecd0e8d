// Package auth implements account registration and session tokens for the
// HTTP boundary. The engine itself never sees authentication.
package auth

import (
	"context"

	"github.com/huddleup/huddle/internal/models"
)

// Authenticator abstracts the credential scheme (password today; passkeys or
// OAuth could slot in) away from the HTTP handlers.
type Authenticator interface {
	// Register creates a new account. Returns the created user or an error
	// if the email is taken or the credential is too weak.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credentials and returns the user if valid.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}
