package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

var _ store.DepartmentStore = (*DepartmentStore)(nil)

// DepartmentStore implements store.DepartmentStore using PostgreSQL.
type DepartmentStore struct {
	pool *pgxpool.Pool
}

// NewDepartmentStore creates a new PostgreSQL-backed department store.
func NewDepartmentStore(pool *pgxpool.Pool) *DepartmentStore {
	return &DepartmentStore{
		pool: pool,
	}
}

const departmentColumns = `department_id, name, name_lower, status, created_at, updated_at`

func scanDepartment(row pgx.Row) (*models.Department, error) {
	var d models.Department
	err := row.Scan(
		&d.DepartmentID,
		&d.Name,
		&d.NameLower,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new department.
func (s *DepartmentStore) Create(ctx context.Context, dept *models.Department) error {
	now := time.Now()
	if dept.CreatedAt.IsZero() {
		dept.CreatedAt = now
	}
	if dept.UpdatedAt.IsZero() {
		dept.UpdatedAt = now
	}
	dept.NameLower = strings.ToLower(dept.Name)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO departments (`+departmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		dept.DepartmentID,
		dept.Name,
		dept.NameLower,
		dept.Status,
		dept.CreatedAt,
		dept.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("department_id", dept.DepartmentID.String()).
		Str("name", dept.Name).
		Msg("Created department")

	return nil
}

// Get retrieves a department by ID.
func (s *DepartmentStore) Get(ctx context.Context, departmentID uuid.UUID) (*models.Department, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+departmentColumns+` FROM departments WHERE department_id = $1`, departmentID)

	d, err := scanDepartment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}

	return d, nil
}

// Update changes the name and status of a department.
func (s *DepartmentStore) Update(ctx context.Context, dept *models.Department) error {
	dept.UpdatedAt = time.Now()
	dept.NameLower = strings.ToLower(dept.Name)

	result, err := s.pool.Exec(ctx, `
		UPDATE departments
		SET name = $2, name_lower = $3, status = $4, updated_at = $5
		WHERE department_id = $1
	`,
		dept.DepartmentID,
		dept.Name,
		dept.NameLower,
		dept.Status,
		dept.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update department: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrDepartmentNotFound
	}

	log.Debug().Str("department_id", dept.DepartmentID.String()).Msg("Updated department")

	return nil
}

// List returns all departments ordered by name.
func (s *DepartmentStore) List(ctx context.Context) ([]*models.Department, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY name_lower`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var depts []*models.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		depts = append(depts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating departments: %w", err)
	}

	return depts, nil
}
