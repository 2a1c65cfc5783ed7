//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString: fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MinConns:   1,
	})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, pool))
	// a second run is a no-op
	require.NoError(t, RunMigrations(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func newUser(email, role string) *models.User {
	return &models.User{
		UserID:       uuid.Must(uuid.NewV7()),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Role:         role,
		Status:       models.UserStatusActive,
	}
}

func TestIntegration_Stores(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	users := NewUserStore(pool)
	depts := NewDepartmentStore(pool)
	emps := NewEmployeeStore(pool)
	audit := NewAuditStore(pool)

	admin := newUser("admin@example.com", models.RoleAdmin)
	worker := newUser("worker@example.com", models.RoleEmployee)

	t.Run("users", func(t *testing.T) {
		require.NoError(t, users.Create(ctx, admin))
		require.NoError(t, users.Create(ctx, worker))

		err := users.Create(ctx, newUser("ADMIN@example.com", models.RoleAdmin))
		require.ErrorIs(t, err, store.ErrUserAlreadyExists)

		got, err := users.GetByEmail(ctx, "Worker@Example.com")
		require.NoError(t, err)
		require.Equal(t, worker.UserID, got.UserID)

		_, err = users.Get(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrUserNotFound)

		update := *worker
		update.PasswordHash = ""
		update.Status = models.UserStatusInactive
		require.NoError(t, users.Update(ctx, &update))

		got, err = users.Get(ctx, worker.UserID)
		require.NoError(t, err)
		require.Equal(t, models.UserStatusInactive, got.Status)
		require.Equal(t, worker.PasswordHash, got.PasswordHash)

		list, err := users.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
	})

	eng := &models.Department{DepartmentID: uuid.Must(uuid.NewV7()), Status: models.DepartmentStatusActive}
	eng.SetName("Engineering")

	t.Run("departments", func(t *testing.T) {
		require.NoError(t, depts.Create(ctx, eng))

		dup := &models.Department{DepartmentID: uuid.Must(uuid.NewV7()), Status: models.DepartmentStatusActive}
		dup.SetName("ENGINEERING")
		require.ErrorIs(t, depts.Create(ctx, dup), store.ErrDepartmentAlreadyExists)

		ops := &models.Department{DepartmentID: uuid.Must(uuid.NewV7()), Status: models.DepartmentStatusActive}
		ops.SetName("Operations")
		require.NoError(t, depts.Create(ctx, ops))

		ops.SetName("engineering")
		require.ErrorIs(t, depts.Update(ctx, ops), store.ErrDepartmentAlreadyExists)

		list, err := depts.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "Engineering", list[0].Name)
	})

	t.Run("employees and audit", func(t *testing.T) {
		emp := &models.Employee{
			EmployeeID:   uuid.Must(uuid.NewV7()),
			UserID:       worker.UserID,
			DepartmentID: eng.DepartmentID,
			Position:     "Engineer",
			HireDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Status:       models.EmployeeStatusActive,
		}
		require.NoError(t, emps.Create(ctx, emp))

		again := *emp
		again.EmployeeID = uuid.Must(uuid.NewV7())
		require.ErrorIs(t, emps.Create(ctx, &again), store.ErrEmployeeAlreadyExists)

		orphan := *emp
		orphan.EmployeeID = uuid.Must(uuid.NewV7())
		orphan.UserID = uuid.Must(uuid.NewV7())
		require.ErrorIs(t, emps.Create(ctx, &orphan), store.ErrUserNotFound)

		got, err := emps.GetByUserID(ctx, worker.UserID)
		require.NoError(t, err)
		require.Equal(t, emp.EmployeeID, got.EmployeeID)
		require.True(t, emp.HireDate.Equal(got.HireDate))

		emp.Position = "Senior Engineer"
		require.NoError(t, emps.Update(ctx, emp))

		for i, action := range []string{models.AuditActionEmployeeCreated, models.AuditActionEmployeeUpdated} {
			require.NoError(t, audit.Append(ctx, &models.AuditEntry{
				EntryID:    uuid.Must(uuid.NewV7()),
				EmployeeID: emp.EmployeeID,
				Action:     action,
				ChangedBy:  admin.UserID,
				CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
			}))
		}

		entries, err := audit.ListByEmployee(ctx, emp.EmployeeID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, models.AuditActionEmployeeUpdated, entries[0].Action)
		require.Empty(t, entries[0].IPAddress)
	})
}
