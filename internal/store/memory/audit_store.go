package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

var _ store.AuditStore = (*AuditStore)(nil)

// AuditStore implements store.AuditStore using in-memory storage.
type AuditStore struct {
	mu sync.RWMutex

	entries map[uuid.UUID][]*models.AuditEntry // employee_id -> entries in append order
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{
		entries: make(map[uuid.UUID][]*models.AuditEntry),
	}
}

// Append stores a new audit entry.
func (s *AuditStore) Append(ctx context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *entry
	s.entries[entry.EmployeeID] = append(s.entries[entry.EmployeeID], &clone)

	return nil
}

// ListByEmployee returns the entries for an employee, newest first.
func (s *AuditStore) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[employeeID]
	out := make([]*models.AuditEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		clone := *entries[i]
		out = append(out, &clone)
	}

	// Entries appended out of order (e.g. clock skew) still come back newest first
	slices.SortStableFunc(out, func(a, b *models.AuditEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out, nil
}
