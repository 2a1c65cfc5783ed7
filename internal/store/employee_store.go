package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/staffdesk/internal/models"
)

// Sentinel errors for employee store operations
var (
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrEmployeeAlreadyExists = errors.New("employee already exists")
)

// EmployeeStore defines the interface for employee record storage.
type EmployeeStore interface {
	// Create creates a new employee record.
	// Returns ErrEmployeeAlreadyExists if the user already has an employee record.
	Create(ctx context.Context, emp *models.Employee) error

	// Get retrieves an employee by ID.
	// Returns ErrEmployeeNotFound if the employee doesn't exist.
	Get(ctx context.Context, employeeID uuid.UUID) (*models.Employee, error)

	// GetByUserID retrieves the employee record attached to a user.
	// Returns ErrEmployeeNotFound if the user is not an employee.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Employee, error)

	// Update updates position, department, hire date and status.
	// Returns ErrEmployeeNotFound if the employee doesn't exist.
	Update(ctx context.Context, emp *models.Employee) error

	// List returns all employee records ordered by ID.
	List(ctx context.Context) ([]*models.Employee, error)
}

// AuditStore records changes to employee records.
type AuditStore interface {
	// Append stores a new audit entry.
	Append(ctx context.Context, entry *models.AuditEntry) error

	// ListByEmployee returns the entries for an employee, newest first.
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*models.AuditEntry, error)
}
