package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/wolfeidau/staffdesk/internal/store"
)

// mapPostgresError maps PostgreSQL errors to store sentinel errors where a
// constraint identifies the entity, and wraps everything else with context.
// Returns the original error if it's not a PostgreSQL error.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case "users_pkey", "users_email_lower_key":
			return store.ErrUserAlreadyExists
		case "departments_pkey", "departments_name_lower_key":
			return store.ErrDepartmentAlreadyExists
		case "employees_pkey", "employees_user_id_key":
			return store.ErrEmployeeAlreadyExists
		}
		return fmt.Errorf("unique constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.ForeignKeyViolation:
		switch pgErr.ConstraintName {
		case "employees_user_id_fkey":
			return fmt.Errorf("%w: %s", store.ErrUserNotFound, pgErr.Detail)
		case "employees_department_id_fkey":
			return fmt.Errorf("%w: %s", store.ErrDepartmentNotFound, pgErr.Detail)
		case "audit_log_employee_id_fkey":
			return fmt.Errorf("%w: %s", store.ErrEmployeeNotFound, pgErr.Detail)
		}
		return fmt.Errorf("foreign key violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.CheckViolation:
		return fmt.Errorf("check constraint violation: %s: %w", pgErr.ConstraintName, err)

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection:
		return fmt.Errorf("database connection error: %w", err)

	case pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown:
		return fmt.Errorf("database server unavailable: %w", err)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("query canceled: %w", err)

	case pgerrcode.InsufficientResources,
		pgerrcode.DiskFull,
		pgerrcode.OutOfMemory,
		pgerrcode.TooManyConnections:
		return fmt.Errorf("database resource limit: %w", err)

	default:
		return fmt.Errorf("postgres error [%s]: %s (detail: %s, hint: %s): %w",
			pgErr.Code, pgErr.Message, pgErr.Detail, pgErr.Hint, err)
	}
}

// isRetryableConnectError reports whether a connect failure may succeed later.
// Authentication and catalog errors are permanent.
func isRetryableConnectError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		// network level failures carry no SQLSTATE
		return true
	}

	switch pgErr.Code {
	case pgerrcode.InvalidPassword,
		pgerrcode.InvalidAuthorizationSpecification,
		pgerrcode.InvalidCatalogName:
		return false
	}

	return pgerrcode.IsConnectionException(pgErr.Code) ||
		pgErr.Code == pgerrcode.CannotConnectNow ||
		pgErr.Code == pgerrcode.TooManyConnections
}
