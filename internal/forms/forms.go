// Package forms parses and validates the HTML form submissions. Each form
// has a Parse function reading url.Values and a Validate method returning
// field errors keyed by form field name.
package forms

import (
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wolfeidau/staffdesk/internal/models"
)

const (
	MinPasswordLength = 6
	MaxNameLength     = 50
	MaxTextLength     = 100

	// DateLayout is the layout of date inputs.
	DateLayout = "2006-01-02"
)

// Errors maps a field name to its first validation message.
type Errors map[string]string

// Add records msg for field unless the field already has an error.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Any reports whether any field failed validation.
func (e Errors) Any() bool {
	return len(e) > 0
}

func (e Errors) requireName(field, label, value string) {
	switch n := utf8.RuneCountInString(value); {
	case n == 0:
		e.Add(field, label+" is required.")
	case n > MaxNameLength:
		e.Add(field, label+" cannot exceed 50 characters.")
	}
}

func (e Errors) requireEmail(field, value string) {
	addr, err := mail.ParseAddress(value)
	// reject display-name forms such as "Ada <ada@example.com>"
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@"):], ".") {
		e.Add(field, "Invalid email address.")
	}
}

func (e Errors) requirePassword(field, value string) {
	if utf8.RuneCountInString(value) < MinPasswordLength {
		e.Add(field, "Password must be at least 6 characters.")
	}
}

func (e Errors) requireOneOf(field, label, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	e.Add(field, label+" is required.")
}

func (e Errors) requireID(field, label, value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		e.Add(field, label+" is required.")
		return uuid.Nil
	}
	return id
}

func (e Errors) requireText(field, label, value string) {
	switch n := utf8.RuneCountInString(value); {
	case n == 0:
		e.Add(field, label+" is required.")
	case n > MaxTextLength:
		e.Add(field, label+" cannot exceed 100 characters.")
	}
}

func field(values url.Values, name string) string {
	return strings.TrimSpace(values.Get(name))
}

// Login is the sign-in form.
type Login struct {
	Email    string
	Password string
	Redirect string
}

func ParseLogin(values url.Values) Login {
	return Login{
		Email:    field(values, "email"),
		Password: values.Get("password"),
		Redirect: field(values, "redirect"),
	}
}

func (f Login) Validate() Errors {
	errs := Errors{}
	errs.requireEmail("email", f.Email)
	errs.requirePassword("password", f.Password)
	return errs
}

// Register is the self-registration form. Administrators use the same
// fields to add users.
type Register struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

func ParseRegister(values url.Values) Register {
	return Register{
		FirstName: field(values, "first_name"),
		LastName:  field(values, "last_name"),
		Email:     field(values, "email"),
		Password:  values.Get("password"),
		Role:      field(values, "role"),
	}
}

func (f Register) Validate() Errors {
	errs := Errors{}
	errs.requireName("first_name", "First name", f.FirstName)
	errs.requireName("last_name", "Last name", f.LastName)
	errs.requireEmail("email", f.Email)
	errs.requirePassword("password", f.Password)
	errs.requireOneOf("role", "Role", f.Role, models.RoleEmployee, models.RoleAdmin)
	return errs
}

// EditUser is the administrator's user edit form. Passwords are not changed here.
type EditUser struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
	Status    string
}

func ParseEditUser(values url.Values) EditUser {
	return EditUser{
		FirstName: field(values, "first_name"),
		LastName:  field(values, "last_name"),
		Email:     field(values, "email"),
		Role:      field(values, "role"),
		Status:    field(values, "status"),
	}
}

func (f EditUser) Validate() Errors {
	errs := Errors{}
	errs.requireName("first_name", "First name", f.FirstName)
	errs.requireName("last_name", "Last name", f.LastName)
	errs.requireEmail("email", f.Email)
	errs.requireOneOf("role", "Role", f.Role, models.RoleEmployee, models.RoleAdmin)
	errs.requireOneOf("status", "Status", f.Status, models.UserStatusActive, models.UserStatusInactive)
	return errs
}

// Department is used for both adding and editing a department. Status is
// only submitted when editing.
type Department struct {
	Name   string
	Status string
}

func ParseDepartment(values url.Values) Department {
	return Department{
		Name:   field(values, "name"),
		Status: field(values, "status"),
	}
}

func (f Department) Validate() Errors {
	errs := Errors{}
	errs.requireText("name", "Department name", f.Name)
	if f.Status != "" {
		errs.requireOneOf("status", "Status", f.Status, models.DepartmentStatusActive, models.DepartmentStatusInactive)
	}
	return errs
}

// Employee is used for both adding and editing an employee record. UserID
// is ignored when editing.
type Employee struct {
	UserID       uuid.UUID
	DepartmentID uuid.UUID
	Position     string
	HireDate     time.Time
	Status       string

	rawUserID       string
	rawDepartmentID string
	rawHireDate     string
}

func ParseEmployee(values url.Values) Employee {
	f := Employee{
		Position:        field(values, "position"),
		Status:          field(values, "status"),
		rawUserID:       field(values, "user_id"),
		rawDepartmentID: field(values, "department_id"),
		rawHireDate:     field(values, "hire_date"),
	}
	if f.Status == "" {
		f.Status = models.EmployeeStatusActive
	}
	return f
}

// Validate checks the form for a new employee record.
func (f *Employee) Validate() Errors {
	errs := f.ValidateEdit()
	f.UserID = errs.requireID("user_id", "User", f.rawUserID)
	return errs
}

// ValidateEdit checks the fields that may change on an existing record.
func (f *Employee) ValidateEdit() Errors {
	errs := Errors{}
	f.DepartmentID = errs.requireID("department_id", "Department", f.rawDepartmentID)
	errs.requireText("position", "Position", f.Position)

	hire, err := time.Parse(DateLayout, f.rawHireDate)
	if err != nil {
		errs.Add("hire_date", "Hire date is required.")
	}
	f.HireDate = hire

	errs.requireOneOf("status", "Status", f.Status, models.EmployeeStatuses...)
	return errs
}
