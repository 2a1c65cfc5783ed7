package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

var _ store.AuditStore = (*AuditStore)(nil)

// AuditStore implements store.AuditStore using PostgreSQL.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates a new PostgreSQL-backed audit store.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{
		pool: pool,
	}
}

// Append inserts an audit entry.
func (s *AuditStore) Append(ctx context.Context, entry *models.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	// empty IP stored as NULL
	var ipAddress any
	if entry.IPAddress != "" {
		ipAddress = entry.IPAddress
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (entry_id, employee_id, action, details, changed_by, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entry.EntryID,
		entry.EmployeeID,
		entry.Action,
		entry.Details,
		entry.ChangedBy,
		ipAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", mapPostgresError(err))
	}

	return nil
}

// ListByEmployee returns the entries for an employee, newest first.
func (s *AuditStore) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*models.AuditEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entry_id, employee_id, action, details, changed_by, COALESCE(ip_address, ''), created_at
		FROM audit_log
		WHERE employee_id = $1
		ORDER BY created_at DESC, entry_id DESC
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(
			&e.EntryID,
			&e.EmployeeID,
			&e.Action,
			&e.Details,
			&e.ChangedBy,
			&e.IPAddress,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}
