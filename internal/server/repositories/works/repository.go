// Package works declares the repository contract for text-to-animation jobs.
package works

import (
	"context"

	"github.com/aidolab/mgstudio/internal/server/models"
)

// Repository defines operations for storing and querying works.
type Repository interface {
	// Create inserts a queued work and returns it with the server-assigned
	// ID and timestamps.
	Create(ctx context.Context, work *models.Work) (*models.Work, error)

	// SelectByUser returns the user's works, newest first.
	SelectByUser(ctx context.Context, userID string) ([]*models.Work, error)

	// Get returns one work owned by userID. Implementations should return a
	// not-found error when the work is absent or owned by someone else.
	Get(ctx context.Context, userID, id string) (*models.Work, error)

	// Delete removes one work owned by userID. Deleting an absent or
	// foreign work should return a not-found error.
	Delete(ctx context.Context, userID, id string) error

	// ClaimQueued atomically moves the oldest queued work to rendering and
	// returns it. A not-found error means the queue is empty.
	ClaimQueued(ctx context.Context) (*models.Work, error)

	// Complete marks a work completed and records the storage key of the
	// rendered video.
	Complete(ctx context.Context, id, storageKey string) error
}
