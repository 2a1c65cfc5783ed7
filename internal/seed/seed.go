// Package seed loads bootstrap users, departments and employee records from
// a YAML file. Applying a seed twice is harmless: records that already exist
// are skipped.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/staffdesk/internal/directory"
	"github.com/wolfeidau/staffdesk/internal/forms"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

// File is the seed document.
type File struct {
	Users       []User       `yaml:"users"`
	Departments []Department `yaml:"departments"`
	Employees   []Employee   `yaml:"employees"`
}

type User struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
}

type Department struct {
	Name string `yaml:"name"`
}

// Employee attaches a record to a seeded (or existing) user by email.
type Employee struct {
	Email      string `yaml:"email"`
	Department string `yaml:"department"`
	Position   string `yaml:"position"`
	HireDate   string `yaml:"hire_date"`
	Status     string `yaml:"status"`
}

// Result counts what Apply created and skipped.
type Result struct {
	Created int
	Skipped int
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document and validates every entry.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := f.validate(); err != nil {
		return nil, err
	}

	return &f, nil
}

func (f *File) validate() error {
	var errs []error

	for i, u := range f.Users {
		if u.Role == "" {
			u.Role = models.RoleEmployee
		}
		form := forms.Register{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Password: u.Password, Role: u.Role}
		if fe := form.Validate(); fe.Any() {
			errs = append(errs, fmt.Errorf("users[%d] (%s): %s", i, u.Email, joinErrors(fe)))
		}
	}

	for i, d := range f.Departments {
		if fe := (forms.Department{Name: d.Name}).Validate(); fe.Any() {
			errs = append(errs, fmt.Errorf("departments[%d]: %s", i, joinErrors(fe)))
		}
	}

	for i, e := range f.Employees {
		if e.Email == "" || e.Department == "" {
			errs = append(errs, fmt.Errorf("employees[%d]: email and department are required", i))
			continue
		}
		if _, err := time.Parse(forms.DateLayout, e.HireDate); err != nil {
			errs = append(errs, fmt.Errorf("employees[%d] (%s): hire_date must be YYYY-MM-DD", i, e.Email))
		}
		if n := utf8.RuneCountInString(strings.TrimSpace(e.Position)); n == 0 || n > forms.MaxTextLength {
			errs = append(errs, fmt.Errorf("employees[%d] (%s): position is required and cannot exceed %d characters", i, e.Email, forms.MaxTextLength))
		}
		if e.Status != "" && !slices.Contains(models.EmployeeStatuses, e.Status) {
			errs = append(errs, fmt.Errorf("employees[%d] (%s): unknown status %q", i, e.Email, e.Status))
		}
	}

	return errors.Join(errs...)
}

// Apply creates the seeded records through the directory. Users and
// departments are created before employees so employees can refer to them.
func Apply(ctx context.Context, dir *directory.Service, f *File) (Result, error) {
	var res Result

	for _, u := range f.Users {
		role := u.Role
		if role == "" {
			role = models.RoleEmployee
		}

		_, err := dir.CreateUser(ctx, directory.NewUser{
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Password:  u.Password,
			Role:      role,
		})
		switch {
		case errors.Is(err, store.ErrUserAlreadyExists):
			log.Debug().Str("email", u.Email).Msg("Seed user already exists")
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		default:
			res.Created++
		}
	}

	for _, d := range f.Departments {
		_, err := dir.CreateDepartment(ctx, d.Name)
		switch {
		case errors.Is(err, store.ErrDepartmentAlreadyExists):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("failed to seed department %s: %w", d.Name, err)
		default:
			res.Created++
		}
	}

	if len(f.Employees) == 0 {
		return res, nil
	}

	users, err := dir.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list users: %w", err)
	}
	depts, err := dir.ListDepartments(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list departments: %w", err)
	}

	// seeded records are attributed to the nil user
	actor := directory.Actor{UserID: uuid.Nil}

	for _, e := range f.Employees {
		user := findUser(users, e.Email)
		if user == nil {
			return res, fmt.Errorf("failed to seed employee %s: %w", e.Email, store.ErrUserNotFound)
		}
		dept := findDepartment(depts, e.Department)
		if dept == nil {
			return res, fmt.Errorf("failed to seed employee %s: %w", e.Email, store.ErrDepartmentNotFound)
		}

		hire, _ := time.Parse(forms.DateLayout, e.HireDate)

		_, err := dir.CreateEmployee(ctx, actor, directory.NewEmployee{
			UserID:       user.UserID,
			DepartmentID: dept.DepartmentID,
			Position:     strings.TrimSpace(e.Position),
			HireDate:     hire,
			Status:       e.Status,
		})
		switch {
		case errors.Is(err, store.ErrEmployeeAlreadyExists):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("failed to seed employee %s: %w", e.Email, err)
		default:
			res.Created++
		}
	}

	return res, nil
}

func findUser(users []*models.User, email string) *models.User {
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func findDepartment(depts []*models.Department, name string) *models.Department {
	for _, d := range depts {
		if d.NameLower == strings.ToLower(name) {
			return d
		}
	}
	return nil
}

func joinErrors(fe forms.Errors) string {
	msgs := make([]string, 0, len(fe))
	for _, msg := range fe {
		msgs = append(msgs, msg)
	}
	slices.Sort(msgs)
	return strings.Join(msgs, " ")
}
