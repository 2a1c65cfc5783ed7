package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

var _ store.EmployeeStore = (*EmployeeStore)(nil)

// EmployeeStore implements store.EmployeeStore using PostgreSQL.
type EmployeeStore struct {
	pool *pgxpool.Pool
}

// NewEmployeeStore creates a new PostgreSQL-backed employee store.
func NewEmployeeStore(pool *pgxpool.Pool) *EmployeeStore {
	return &EmployeeStore{
		pool: pool,
	}
}

const employeeColumns = `employee_id, user_id, department_id, position, hire_date, status, created_at, updated_at`

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(
		&e.EmployeeID,
		&e.UserID,
		&e.DepartmentID,
		&e.Position,
		&e.HireDate,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new employee record. The user and department must exist.
func (s *EmployeeStore) Create(ctx context.Context, emp *models.Employee) error {
	now := time.Now()
	if emp.CreatedAt.IsZero() {
		emp.CreatedAt = now
	}
	if emp.UpdatedAt.IsZero() {
		emp.UpdatedAt = now
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		emp.EmployeeID,
		emp.UserID,
		emp.DepartmentID,
		emp.Position,
		emp.HireDate,
		emp.Status,
		emp.CreatedAt,
		emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("employee_id", emp.EmployeeID.String()).
		Str("user_id", emp.UserID.String()).
		Msg("Created employee")

	return nil
}

// Get retrieves an employee by ID.
func (s *EmployeeStore) Get(ctx context.Context, employeeID uuid.UUID) (*models.Employee, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE employee_id = $1`, employeeID)

	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return e, nil
}

// GetByUserID retrieves the employee record attached to a user.
func (s *EmployeeStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Employee, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1`, userID)

	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee by user: %w", err)
	}

	return e, nil
}

// Update changes position, department, hire date and status. The user an
// employee record belongs to never changes.
func (s *EmployeeStore) Update(ctx context.Context, emp *models.Employee) error {
	emp.UpdatedAt = time.Now()

	result, err := s.pool.Exec(ctx, `
		UPDATE employees
		SET department_id = $2, position = $3, hire_date = $4, status = $5, updated_at = $6
		WHERE employee_id = $1
	`,
		emp.EmployeeID,
		emp.DepartmentID,
		emp.Position,
		emp.HireDate,
		emp.Status,
		emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrEmployeeNotFound
	}

	log.Debug().Str("employee_id", emp.EmployeeID.String()).Msg("Updated employee")

	return nil
}

// List returns all employee records ordered by ID.
func (s *EmployeeStore) List(ctx context.Context) ([]*models.Employee, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY employee_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var emps []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emps = append(emps, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return emps, nil
}
