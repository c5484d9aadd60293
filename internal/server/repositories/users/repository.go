// Package users declares the server-side repository contract for user
// accounts keyed by phone number.
package users

import (
	"context"

	"github.com/aidolab/mgstudio/internal/server/models"
)

// Repository defines operations for creating and retrieving user accounts.
type Repository interface {
	// Create inserts a new user and returns it with the server-assigned ID.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByPhone returns the user registered under the given phone number.
	// Implementations should return a not-found error when the user is absent.
	GetByPhone(ctx context.Context, phone string) (*models.User, error)

	// GetByID returns the user with the given ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
