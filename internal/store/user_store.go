package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/staffdesk/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStore defines the interface for user account storage.
// It is the profile store consulted at login: given a user ID it returns the
// name, email, role and status of the account.
type UserStore interface {
	// Create creates a new user.
	// Returns ErrUserAlreadyExists if the ID or email (ignoring case) is taken.
	Create(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID.
	// Returns ErrUserNotFound if the user doesn't exist.
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email, ignoring case.
	// Returns ErrUserNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Update replaces the mutable fields of an existing user.
	// Returns ErrUserNotFound if the user doesn't exist, and
	// ErrUserAlreadyExists if the new email belongs to another user.
	Update(ctx context.Context, user *models.User) error

	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*models.User, error)
}
