// Package codes declares the repository contract for SMS verification code
// digests.
package codes

import (
	"context"
	"time"

	"github.com/aidolab/mgstudio/internal/server/models"
)

// Repository defines operations for issuing and consuming verification codes.
type Repository interface {
	// Create stores a code digest for phone with an expiry of now+validity.
	Create(ctx context.Context, phone string, codeDigest []byte, validity time.Duration) error

	// FindLatest returns the most recently issued code for phone.
	// Implementations should return a not-found error when none exists.
	FindLatest(ctx context.Context, phone string) (*models.VerificationCode, error)

	// DeleteForPhone removes every code issued for phone. Codes are single
	// use: a successful login consumes them, and sending a new code
	// invalidates the old ones.
	DeleteForPhone(ctx context.Context, phone string) error

	// DeleteExpired removes codes whose expiry has passed.
	DeleteExpired(ctx context.Context) error
}
