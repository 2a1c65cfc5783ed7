// Package directory implements the administrative operations on users,
// departments and employee records, including the employee audit log.
package directory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wolfeidau/staffdesk/internal/identity"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
	"github.com/wolfeidau/staffdesk/internal/telemetry"
)

// Service coordinates the stores. It holds no state of its own.
type Service struct {
	users       store.UserStore
	departments store.DepartmentStore
	employees   store.EmployeeStore
	audit       store.AuditStore
	metrics     *telemetry.Metrics
}

// NewService creates a directory service over the given stores.
func NewService(users store.UserStore, departments store.DepartmentStore, employees store.EmployeeStore, audit store.AuditStore) *Service {
	return &Service{
		users:       users,
		departments: departments,
		employees:   employees,
		audit:       audit,
		metrics:     telemetry.GetMetrics(),
	}
}

// Actor identifies the administrator performing a change.
type Actor struct {
	UserID    uuid.UUID
	IPAddress string
}

func (s *Service) recordWrite(ctx context.Context, entity, op string) {
	s.metrics.DirectoryWritesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("op", op),
	))
}

// NewUser holds the fields of a user account being created.
type NewUser struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// UserUpdate holds the editable fields of a user account.
type UserUpdate struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
	Status    string
}

// ListUsers returns every user ordered by creation time.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.Get(ctx, userID)
}

// CreateUser hashes the password and stores a new active account.
// Returns store.ErrUserAlreadyExists when the email is taken.
func (s *Service) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	if !models.IsValidRole(in.Role) {
		return nil, fmt.Errorf("invalid role %q", in.Role)
	}

	hash, err := identity.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		UserID:       uuid.Must(uuid.NewV7()),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.recordWrite(ctx, "user", "create")
	log.Info().Str("user_id", user.UserID.String()).Str("role", user.Role).Msg("User created")

	return user, nil
}

// UpdateUser changes name, email, role and status. The password is kept.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, in UserUpdate) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = in.Email
	user.Role = in.Role
	user.Status = in.Status
	user.PasswordHash = ""

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.recordWrite(ctx, "user", "update")
	log.Info().Str("user_id", userID.String()).Str("status", in.Status).Msg("User updated")

	return s.users.Get(ctx, userID)
}

// ListDepartments returns every department ordered by name.
func (s *Service) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	return s.departments.List(ctx)
}

// CreateDepartment adds an active department.
// Returns store.ErrDepartmentAlreadyExists when the name is taken ignoring case.
func (s *Service) CreateDepartment(ctx context.Context, name string) (*models.Department, error) {
	now := time.Now()
	dept := &models.Department{
		DepartmentID: uuid.Must(uuid.NewV7()),
		Status:       models.DepartmentStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	dept.SetName(name)

	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, err
	}

	s.recordWrite(ctx, "department", "create")
	log.Info().Str("department_id", dept.DepartmentID.String()).Str("name", name).Msg("Department created")

	return dept, nil
}

// UpdateDepartment renames a department and optionally changes its status.
// An empty status leaves it unchanged.
func (s *Service) UpdateDepartment(ctx context.Context, departmentID uuid.UUID, name, status string) (*models.Department, error) {
	dept, err := s.departments.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		dept.SetName(name)
	}
	if status != "" {
		dept.Status = status
	}

	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, err
	}

	s.recordWrite(ctx, "department", "update")

	return dept, nil
}

// EnrichedEmployee is an employee record joined with its user and department.
type EnrichedEmployee struct {
	*models.Employee
	UserEmail      string
	UserName       string // "First Last", or "N/A" when the user is missing
	DepartmentName string
}

// ListEmployees returns every employee record with user and department
// details, ordered by employee ID.
func (s *Service) ListEmployees(ctx context.Context) ([]*EnrichedEmployee, error) {
	emps, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	usersByID := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		usersByID[u.UserID] = u
	}

	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	deptsByID := make(map[uuid.UUID]*models.Department, len(depts))
	for _, d := range depts {
		deptsByID[d.DepartmentID] = d
	}

	out := make([]*EnrichedEmployee, 0, len(emps))
	for _, emp := range emps {
		out = append(out, enrich(emp, usersByID[emp.UserID], deptsByID[emp.DepartmentID]))
	}

	slices.SortFunc(out, func(a, b *EnrichedEmployee) int {
		return strings.Compare(a.EmployeeID.String(), b.EmployeeID.String())
	})

	return out, nil
}

func enrich(emp *models.Employee, user *models.User, dept *models.Department) *EnrichedEmployee {
	e := &EnrichedEmployee{Employee: emp, UserName: "N/A"}
	if user != nil {
		e.UserEmail = user.Email
		e.UserName = user.FullName()
	}
	if dept != nil {
		e.DepartmentName = dept.Name
	}
	return e
}

// UsersNotYetEmployees returns employee-role users without an employee record.
func (s *Service) UsersNotYetEmployees(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	emps, err := s.employees.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	hasRecord := make(map[uuid.UUID]bool, len(emps))
	for _, e := range emps {
		hasRecord[e.UserID] = true
	}

	var out []*models.User
	for _, u := range users {
		if u.Role == models.RoleEmployee && !hasRecord[u.UserID] {
			out = append(out, u)
		}
	}

	return out, nil
}

// NewEmployee holds the fields of an employee record being created.
type NewEmployee struct {
	UserID       uuid.UUID
	DepartmentID uuid.UUID
	Position     string
	HireDate     time.Time
	Status       string
}

// EmployeeUpdate holds the editable fields of an employee record.
type EmployeeUpdate struct {
	DepartmentID uuid.UUID
	Position     string
	HireDate     time.Time
	Status       string
}

// CreateEmployee attaches an employee record to an existing user.
// Returns store.ErrUserNotFound, store.ErrDepartmentNotFound or
// store.ErrEmployeeAlreadyExists.
func (s *Service) CreateEmployee(ctx context.Context, actor Actor, in NewEmployee) (*EnrichedEmployee, error) {
	user, err := s.users.Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	dept, err := s.departments.Get(ctx, in.DepartmentID)
	if err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.EmployeeStatusActive
	}

	now := time.Now()
	emp := &models.Employee{
		EmployeeID:   uuid.Must(uuid.NewV7()),
		UserID:       in.UserID,
		DepartmentID: in.DepartmentID,
		Position:     in.Position,
		HireDate:     in.HireDate,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.employees.Create(ctx, emp); err != nil {
		return nil, err
	}

	s.recordWrite(ctx, "employee", "create")
	s.appendAudit(ctx, actor, emp.EmployeeID, models.AuditActionEmployeeCreated,
		fmt.Sprintf("Employee %s created for user %s.", emp.EmployeeID, in.UserID))

	return enrich(emp, user, dept), nil
}

// UpdateEmployee changes an employee record and, when anything changed,
// writes an audit entry listing each changed field.
func (s *Service) UpdateEmployee(ctx context.Context, actor Actor, employeeID uuid.UUID, in EmployeeUpdate) (*EnrichedEmployee, error) {
	old, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	dept, err := s.departments.Get(ctx, in.DepartmentID)
	if err != nil {
		return nil, err
	}

	updated := *old
	updated.DepartmentID = in.DepartmentID
	updated.Position = in.Position
	updated.HireDate = in.HireDate
	updated.Status = in.Status

	if err := s.employees.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.recordWrite(ctx, "employee", "update")

	if changes := s.describeChanges(ctx, old, &updated); len(changes) > 0 {
		s.appendAudit(ctx, actor, employeeID, models.AuditActionEmployeeUpdated, strings.Join(changes, "; "))
	}

	user, err := s.users.Get(ctx, updated.UserID)
	if err != nil && !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	return enrich(&updated, user, dept), nil
}

func (s *Service) describeChanges(ctx context.Context, old, updated *models.Employee) []string {
	var changes []string

	if old.Position != updated.Position {
		changes = append(changes, fmt.Sprintf("Position: '%s' to '%s'", old.Position, updated.Position))
	}
	if old.DepartmentID != updated.DepartmentID {
		changes = append(changes, fmt.Sprintf("Department: '%s' to '%s'",
			s.departmentName(ctx, old.DepartmentID), s.departmentName(ctx, updated.DepartmentID)))
	}
	if oldDate, newDate := old.HireDate.Format(time.DateOnly), updated.HireDate.Format(time.DateOnly); oldDate != newDate {
		changes = append(changes, fmt.Sprintf("Hire Date: '%s' to '%s'", oldDate, newDate))
	}
	if old.Status != updated.Status {
		changes = append(changes, fmt.Sprintf("Status: '%s' to '%s'", old.Status, updated.Status))
	}

	return changes
}

// departmentName falls back to the ID when the department cannot be read.
func (s *Service) departmentName(ctx context.Context, id uuid.UUID) string {
	dept, err := s.departments.Get(ctx, id)
	if err != nil {
		return id.String()
	}
	return dept.Name
}

// appendAudit never fails the calling operation; errors are logged and counted.
func (s *Service) appendAudit(ctx context.Context, actor Actor, employeeID uuid.UUID, action, details string) {
	entry := &models.AuditEntry{
		EntryID:    uuid.Must(uuid.NewV7()),
		EmployeeID: employeeID,
		Action:     action,
		Details:    details,
		ChangedBy:  actor.UserID,
		IPAddress:  actor.IPAddress,
		CreatedAt:  time.Now(),
	}

	if err := s.audit.Append(ctx, entry); err != nil {
		s.metrics.AuditFailuresTotal.Add(ctx, 1)
		log.Error().Err(err).
			Str("employee_id", employeeID.String()).
			Str("action", action).
			Msg("Failed to write audit entry")
	}
}

// AuditLog returns the audit entries for an employee, newest first.
func (s *Service) AuditLog(ctx context.Context, employeeID uuid.UUID) ([]*models.AuditEntry, error) {
	if _, err := s.employees.Get(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.audit.ListByEmployee(ctx, employeeID)
}

// Profile is what an employee sees about themselves.
type Profile struct {
	User       *models.User
	Employee   *models.Employee   // nil when the user has no employee record
	Department *models.Department // nil when there is no record or the department is gone
}

// Profile loads the user and, if present, their employee record and department.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{User: user}

	emp, err := s.employees.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, store.ErrEmployeeNotFound):
		return p, nil
	case err != nil:
		return nil, err
	}
	p.Employee = emp

	dept, err := s.departments.Get(ctx, emp.DepartmentID)
	if err != nil && !errors.Is(err, store.ErrDepartmentNotFound) {
		return nil, err
	}
	p.Department = dept

	return p, nil
}
