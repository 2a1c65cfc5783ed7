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

var _ store.EmployeeStore = (*EmployeeStore)(nil)

// EmployeeStore implements store.EmployeeStore using in-memory storage.
type EmployeeStore struct {
	mu sync.RWMutex

	employees       map[uuid.UUID]*models.Employee // employee_id -> Employee
	employeesByUser map[uuid.UUID]*models.Employee // user_id -> Employee
}

// NewEmployeeStore creates a new in-memory employee store.
func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{
		employees:       make(map[uuid.UUID]*models.Employee),
		employeesByUser: make(map[uuid.UUID]*models.Employee),
	}
}

// Create creates a new employee record in memory.
func (s *EmployeeStore) Create(ctx context.Context, emp *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[emp.EmployeeID]; exists {
		return store.ErrEmployeeAlreadyExists
	}
	if _, exists := s.employeesByUser[emp.UserID]; exists {
		return store.ErrEmployeeAlreadyExists
	}

	clone := *emp
	s.employees[emp.EmployeeID] = &clone
	s.employeesByUser[emp.UserID] = &clone

	return nil
}

// Get retrieves an employee by ID.
func (s *EmployeeStore) Get(ctx context.Context, employeeID uuid.UUID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, exists := s.employees[employeeID]
	if !exists {
		return nil, store.ErrEmployeeNotFound
	}

	clone := *emp
	return &clone, nil
}

// GetByUserID retrieves the employee record attached to a user.
func (s *EmployeeStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, exists := s.employeesByUser[userID]
	if !exists {
		return nil, store.ErrEmployeeNotFound
	}

	clone := *emp
	return &clone, nil
}

// Update updates an existing employee record. The user link is immutable.
func (s *EmployeeStore) Update(ctx context.Context, emp *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.employees[emp.EmployeeID]
	if !exists {
		return store.ErrEmployeeNotFound
	}

	emp.UpdatedAt = time.Now()

	clone := *emp
	clone.UserID = existing.UserID
	clone.CreatedAt = existing.CreatedAt
	s.employees[emp.EmployeeID] = &clone
	s.employeesByUser[clone.UserID] = &clone

	return nil
}

// List returns all employee records ordered by ID.
func (s *EmployeeStore) List(ctx context.Context) ([]*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emps := make([]*models.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		clone := *emp
		emps = append(emps, &clone)
	}

	slices.SortFunc(emps, func(a, b *models.Employee) int {
		return strings.Compare(a.EmployeeID.String(), b.EmployeeID.String())
	})

	return emps, nil
}
