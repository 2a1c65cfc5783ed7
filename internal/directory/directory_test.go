package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
	"github.com/wolfeidau/staffdesk/internal/store/memory"
)

type failingAuditStore struct {
	store.AuditStore
}

func (failingAuditStore) Append(ctx context.Context, entry *models.AuditEntry) error {
	return errors.New("audit table unavailable")
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.NewUserStore(), memory.NewDepartmentStore(), memory.NewEmployeeStore(), memory.NewAuditStore())
}

func mustCreateUser(t *testing.T, svc *Service, email, role string) *models.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), NewUser{
		FirstName: "Test",
		LastName:  "Person",
		Email:     email,
		Password:  "secret1",
		Role:      role,
	})
	require.NoError(t, err)
	return u
}

func mustCreateDepartment(t *testing.T, svc *Service, name string) *models.Department {
	t.Helper()
	d, err := svc.CreateDepartment(context.Background(), name)
	require.NoError(t, err)
	return d
}

func TestService_Users(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	u := mustCreateUser(t, svc, "amy@example.com", models.RoleEmployee)
	require.Equal(t, models.UserStatusActive, u.Status)
	require.NotEqual(t, "secret1", u.PasswordHash)

	_, err := svc.CreateUser(ctx, NewUser{FirstName: "A", LastName: "B", Email: "AMY@example.com", Password: "secret1", Role: models.RoleEmployee})
	require.ErrorIs(t, err, store.ErrUserAlreadyExists)

	_, err = svc.CreateUser(ctx, NewUser{FirstName: "A", LastName: "B", Email: "x@example.com", Password: "secret1", Role: "owner"})
	require.Error(t, err)

	updated, err := svc.UpdateUser(ctx, u.UserID, UserUpdate{
		FirstName: "Amy",
		LastName:  "Pond",
		Email:     "amy.pond@example.com",
		Role:      models.RoleAdmin,
		Status:    models.UserStatusInactive,
	})
	require.NoError(t, err)
	require.Equal(t, "Amy Pond", updated.FullName())
	require.Equal(t, models.UserStatusInactive, updated.Status)
	require.Equal(t, u.PasswordHash, updated.PasswordHash)

	_, err = svc.UpdateUser(ctx, uuid.Must(uuid.NewV7()), UserUpdate{})
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestService_Departments(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	eng := mustCreateDepartment(t, svc, "Engineering")
	require.Equal(t, models.DepartmentStatusActive, eng.Status)

	_, err := svc.CreateDepartment(ctx, "engineering")
	require.ErrorIs(t, err, store.ErrDepartmentAlreadyExists)

	ops := mustCreateDepartment(t, svc, "Operations")

	_, err = svc.UpdateDepartment(ctx, ops.DepartmentID, "ENGINEERING", "")
	require.ErrorIs(t, err, store.ErrDepartmentAlreadyExists)

	// renaming to a case variant of its own name is allowed
	renamed, err := svc.UpdateDepartment(ctx, eng.DepartmentID, "ENGINEERING", models.DepartmentStatusInactive)
	require.NoError(t, err)
	require.Equal(t, "ENGINEERING", renamed.Name)
	require.Equal(t, models.DepartmentStatusInactive, renamed.Status)

	kept, err := svc.UpdateDepartment(ctx, ops.DepartmentID, "Ops", "")
	require.NoError(t, err)
	require.Equal(t, models.DepartmentStatusActive, kept.Status)
}

func TestService_CreateEmployee(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	admin := mustCreateUser(t, svc, "admin@example.com", models.RoleAdmin)
	worker := mustCreateUser(t, svc, "worker@example.com", models.RoleEmployee)
	eng := mustCreateDepartment(t, svc, "Engineering")
	actor := Actor{UserID: admin.UserID, IPAddress: "203.0.113.7"}

	in := NewEmployee{
		UserID:       worker.UserID,
		DepartmentID: eng.DepartmentID,
		Position:     "Engineer",
		HireDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	emp, err := svc.CreateEmployee(ctx, actor, in)
	require.NoError(t, err)
	require.Equal(t, "worker@example.com", emp.UserEmail)
	require.Equal(t, "Test Person", emp.UserName)
	require.Equal(t, "Engineering", emp.DepartmentName)
	require.Equal(t, models.EmployeeStatusActive, emp.Status)

	_, err = svc.CreateEmployee(ctx, actor, in)
	require.ErrorIs(t, err, store.ErrEmployeeAlreadyExists)

	missingUser := in
	missingUser.UserID = uuid.Must(uuid.NewV7())
	_, err = svc.CreateEmployee(ctx, actor, missingUser)
	require.ErrorIs(t, err, store.ErrUserNotFound)

	missingDept := in
	missingDept.DepartmentID = uuid.Must(uuid.NewV7())
	_, err = svc.CreateEmployee(ctx, actor, missingDept)
	require.ErrorIs(t, err, store.ErrDepartmentNotFound)

	entries, err := svc.AuditLog(ctx, emp.EmployeeID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.AuditActionEmployeeCreated, entries[0].Action)
	require.Equal(t, admin.UserID, entries[0].ChangedBy)
	require.Equal(t, "203.0.113.7", entries[0].IPAddress)
}

func TestService_UpdateEmployeeAudit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	admin := mustCreateUser(t, svc, "admin@example.com", models.RoleAdmin)
	worker := mustCreateUser(t, svc, "worker@example.com", models.RoleEmployee)
	eng := mustCreateDepartment(t, svc, "Engineering")
	ops := mustCreateDepartment(t, svc, "Operations")
	actor := Actor{UserID: admin.UserID}

	emp, err := svc.CreateEmployee(ctx, actor, NewEmployee{
		UserID:       worker.UserID,
		DepartmentID: eng.DepartmentID,
		Position:     "Engineer",
		HireDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// no changes, no audit entry
	_, err = svc.UpdateEmployee(ctx, actor, emp.EmployeeID, EmployeeUpdate{
		DepartmentID: eng.DepartmentID,
		Position:     "Engineer",
		HireDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:       models.EmployeeStatusActive,
	})
	require.NoError(t, err)

	entries, err := svc.AuditLog(ctx, emp.EmployeeID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	updated, err := svc.UpdateEmployee(ctx, actor, emp.EmployeeID, EmployeeUpdate{
		DepartmentID: ops.DepartmentID,
		Position:     "Lead",
		HireDate:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Status:       models.EmployeeStatusOnLeave,
	})
	require.NoError(t, err)
	require.Equal(t, "Operations", updated.DepartmentName)
	require.Equal(t, worker.UserID, updated.UserID)

	entries, err = svc.AuditLog(ctx, emp.EmployeeID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.AuditActionEmployeeUpdated, entries[0].Action)
	require.Equal(t,
		"Position: 'Engineer' to 'Lead'; Department: 'Engineering' to 'Operations'; Hire Date: '2024-03-01' to '2024-04-01'; Status: 'active' to 'on_leave'",
		entries[0].Details)

	_, err = svc.UpdateEmployee(ctx, actor, uuid.Must(uuid.NewV7()), EmployeeUpdate{DepartmentID: ops.DepartmentID})
	require.ErrorIs(t, err, store.ErrEmployeeNotFound)
}

func TestService_AuditFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserStore()
	svc := NewService(users, memory.NewDepartmentStore(), memory.NewEmployeeStore(), failingAuditStore{})

	worker := mustCreateUser(t, svc, "worker@example.com", models.RoleEmployee)
	eng := mustCreateDepartment(t, svc, "Engineering")

	emp, err := svc.CreateEmployee(ctx, Actor{}, NewEmployee{
		UserID:       worker.UserID,
		DepartmentID: eng.DepartmentID,
		Position:     "Engineer",
		HireDate:     time.Now(),
	})
	require.NoError(t, err)
	require.NotNil(t, emp)
}

func TestService_ListEmployees(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	eng := mustCreateDepartment(t, svc, "Engineering")

	var ids []uuid.UUID
	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		u := mustCreateUser(t, svc, email, models.RoleEmployee)
		emp, err := svc.CreateEmployee(ctx, Actor{}, NewEmployee{
			UserID:       u.UserID,
			DepartmentID: eng.DepartmentID,
			Position:     "Engineer",
			HireDate:     time.Now(),
		})
		require.NoError(t, err)
		ids = append(ids, emp.EmployeeID)
	}

	list, err := svc.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		require.Less(t, list[i-1].EmployeeID.String(), list[i].EmployeeID.String())
	}
	require.ElementsMatch(t, ids, []uuid.UUID{list[0].EmployeeID, list[1].EmployeeID, list[2].EmployeeID})
}

func TestEnrich_MissingUser(t *testing.T) {
	e := enrich(&models.Employee{EmployeeID: uuid.Must(uuid.NewV7())}, nil, nil)
	require.Equal(t, "N/A", e.UserName)
	require.Empty(t, e.UserEmail)
	require.Empty(t, e.DepartmentName)
}

func TestService_UsersNotYetEmployees(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	eng := mustCreateDepartment(t, svc, "Engineering")

	mustCreateUser(t, svc, "admin@example.com", models.RoleAdmin)
	hired := mustCreateUser(t, svc, "hired@example.com", models.RoleEmployee)
	waiting := mustCreateUser(t, svc, "waiting@example.com", models.RoleEmployee)

	_, err := svc.CreateEmployee(ctx, Actor{}, NewEmployee{
		UserID:       hired.UserID,
		DepartmentID: eng.DepartmentID,
		Position:     "Engineer",
		HireDate:     time.Now(),
	})
	require.NoError(t, err)

	users, err := svc.UsersNotYetEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, waiting.UserID, users[0].UserID)
}

func TestService_Profile(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	eng := mustCreateDepartment(t, svc, "Engineering")
	worker := mustCreateUser(t, svc, "worker@example.com", models.RoleEmployee)

	p, err := svc.Profile(ctx, worker.UserID)
	require.NoError(t, err)
	require.Equal(t, worker.UserID, p.User.UserID)
	require.Nil(t, p.Employee)
	require.Nil(t, p.Department)

	_, err = svc.CreateEmployee(ctx, Actor{}, NewEmployee{
		UserID:       worker.UserID,
		DepartmentID: eng.DepartmentID,
		Position:     "Engineer",
		HireDate:     time.Now(),
	})
	require.NoError(t, err)

	p, err = svc.Profile(ctx, worker.UserID)
	require.NoError(t, err)
	require.NotNil(t, p.Employee)
	require.Equal(t, "Engineering", p.Department.Name)

	_, err = svc.Profile(ctx, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, store.ErrUserNotFound)
}
