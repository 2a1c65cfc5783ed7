package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/staffdesk/internal/models"
)

// Sentinel errors for department store operations
var (
	ErrDepartmentNotFound      = errors.New("department not found")
	ErrDepartmentAlreadyExists = errors.New("department already exists")
)

// DepartmentStore defines the interface for department storage.
type DepartmentStore interface {
	// Create creates a new department.
	// Returns ErrDepartmentAlreadyExists if another department has the same name ignoring case.
	Create(ctx context.Context, dept *models.Department) error

	// Get retrieves a department by ID.
	// Returns ErrDepartmentNotFound if the department doesn't exist.
	Get(ctx context.Context, departmentID uuid.UUID) (*models.Department, error)

	// Update updates the name and status of an existing department.
	// Returns ErrDepartmentNotFound or ErrDepartmentAlreadyExists.
	Update(ctx context.Context, dept *models.Department) error

	// List returns all departments ordered by name.
	List(ctx context.Context) ([]*models.Department, error)
}
