package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

var _ store.DepartmentStore = (*DepartmentStore)(nil)

// DepartmentStore implements store.DepartmentStore using in-memory storage.
type DepartmentStore struct {
	mu sync.RWMutex

	departments map[uuid.UUID]*models.Department // department_id -> Department
}

// NewDepartmentStore creates a new in-memory department store.
func NewDepartmentStore() *DepartmentStore {
	return &DepartmentStore{
		departments: make(map[uuid.UUID]*models.Department),
	}
}

// Create creates a new department in memory.
func (s *DepartmentStore) Create(ctx context.Context, dept *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.departments[dept.DepartmentID]; exists {
		return store.ErrDepartmentAlreadyExists
	}
	if s.nameTakenLocked(dept.Name, uuid.Nil) {
		return store.ErrDepartmentAlreadyExists
	}

	clone := *dept
	clone.NameLower = strings.ToLower(clone.Name)
	s.departments[dept.DepartmentID] = &clone

	return nil
}

// Get retrieves a department by ID.
func (s *DepartmentStore) Get(ctx context.Context, departmentID uuid.UUID) (*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dept, exists := s.departments[departmentID]
	if !exists {
		return nil, store.ErrDepartmentNotFound
	}

	clone := *dept
	return &clone, nil
}

// Update updates an existing department.
func (s *DepartmentStore) Update(ctx context.Context, dept *models.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.departments[dept.DepartmentID]
	if !exists {
		return store.ErrDepartmentNotFound
	}
	if s.nameTakenLocked(dept.Name, dept.DepartmentID) {
		return store.ErrDepartmentAlreadyExists
	}

	dept.UpdatedAt = time.Now()

	clone := *dept
	clone.NameLower = strings.ToLower(clone.Name)
	clone.CreatedAt = existing.CreatedAt
	s.departments[dept.DepartmentID] = &clone

	return nil
}

// List returns all departments ordered by name.
func (s *DepartmentStore) List(ctx context.Context) ([]*models.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	depts := make([]*models.Department, 0, len(s.departments))
	for _, dept := range s.departments {
		clone := *dept
		depts = append(depts, &clone)
	}

	slices.SortFunc(depts, func(a, b *models.Department) int {
		return strings.Compare(a.NameLower, b.NameLower)
	})

	return depts, nil
}

// nameTakenLocked reports whether a department other than except already uses name.
func (s *DepartmentStore) nameTakenLocked(name string, except uuid.UUID) bool {
	lower := strings.ToLower(name)
	for id, dept := range s.departments {
		if id != except && dept.NameLower == lower {
			return true
		}
	}
	return false
}
