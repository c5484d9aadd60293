// Package tokens declares the repository contract for issued access tokens.
// A token row exists while the session it belongs to is alive; logout deletes
// it, which revokes the token ahead of its JWT expiry.
package tokens

import (
	"context"
	"time"

	"github.com/aidolab/mgstudio/internal/server/models"
)

// Repository defines operations for recording and revoking issued tokens.
type Repository interface {
	// Create records a freshly issued token for userID with an expiry of
	// now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find looks up an issued token by its string and returns its metadata.
	// Implementations should return a not-found error when the token is
	// absent (never issued or already revoked).
	Find(ctx context.Context, token string) (*models.IssuedToken, error)

	// DeleteForUser revokes every token issued to userID. Revoking a user
	// with no live tokens is not an error.
	DeleteForUser(ctx context.Context, userID string) error

	// DeleteExpired removes tokens whose expiry has passed.
	DeleteExpired(ctx context.Context) error
}
