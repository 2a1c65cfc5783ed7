package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee statuses.
const (
	EmployeeStatusActive     = "active"
	EmployeeStatusOnLeave    = "on_leave"
	EmployeeStatusTerminated = "terminated"
)

// EmployeeStatuses lists the valid employee statuses in display order.
var EmployeeStatuses = []string{
	EmployeeStatusActive,
	EmployeeStatusOnLeave,
	EmployeeStatusTerminated,
}

// Employee is the HR record attached to a user account.
// A user has at most one employee record.
type Employee struct {
	EmployeeID   uuid.UUID // UUIDv7
	UserID       uuid.UUID // FK to users, unique
	DepartmentID uuid.UUID // FK to departments
	Position     string
	HireDate     time.Time // Date only, stored at UTC midnight
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Audit actions recorded against employee records.
const (
	AuditActionEmployeeCreated = "EMPLOYEE_CREATED"
	AuditActionEmployeeUpdated = "EMPLOYEE_UPDATED"
)

// AuditEntry records a change made to an employee record by an administrator.
type AuditEntry struct {
	EntryID    uuid.UUID // UUIDv7
	EmployeeID uuid.UUID
	Action     string
	Details    string
	ChangedBy  uuid.UUID // User ID of the administrator
	IPAddress  string    // Optional
	CreatedAt  time.Time
}
