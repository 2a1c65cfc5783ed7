package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Department statuses.
const (
	DepartmentStatusActive   = "active"
	DepartmentStatusInactive = "inactive"
)

// Department groups employees. Names are unique ignoring case.
type Department struct {
	DepartmentID uuid.UUID // UUIDv7
	Name         string
	NameLower    string // strings.ToLower(Name), used for uniqueness checks
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetName updates Name and the derived NameLower together.
func (d *Department) SetName(name string) {
	d.Name = name
	d.NameLower = strings.ToLower(name)
}
