package website

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/staffdesk/internal/directory"
	"github.com/wolfeidau/staffdesk/internal/forms"
	"github.com/wolfeidau/staffdesk/internal/gate"
	httpmw "github.com/wolfeidau/staffdesk/internal/http"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/session"
	"github.com/wolfeidau/staffdesk/internal/store"
)

// Dashboard form names, used to attach errors to the right form.
const (
	formAddUser       = "add_user"
	formEditUser      = "edit_user"
	formAddDepartment = "add_department"
	formEditDept      = "edit_department"
	formAddEmployee   = "add_employee"
	formEditEmployee  = "edit_employee"
)

var notices = map[string]string{
	"user_created":       "User added.",
	"user_updated":       "User updated.",
	"department_created": "Department added.",
	"department_updated": "Department updated.",
	"employee_created":   "Employee record added.",
	"employee_updated":   "Employee record updated.",
}

// AdminView is the data for the administrator dashboard.
type AdminView struct {
	Users            []*models.User
	Departments      []*models.Department
	Employees        []*directory.EnrichedEmployee
	Candidates       []*models.User
	EmployeeStatuses []string

	Notice string

	// Form names the form that failed, EditID the record it was editing.
	Form    string
	EditID  string
	Values  map[string]string
	Errors  forms.Errors
	Message string
}

// Value returns the submitted value of field when form is the one that failed.
func (v AdminView) Value(form, field string) string {
	if v.Form != form {
		return ""
	}
	return v.Values[field]
}

// ErrorsFor returns the errors of form, or nil when another form failed.
func (v AdminView) ErrorsFor(form, id string) forms.Errors {
	if v.Form != form || v.EditID != id {
		return nil
	}
	return v.Errors
}

// MessageFor returns the failure message for form and record id.
func (v AdminView) MessageFor(form, id string) string {
	if v.Form != form || v.EditID != id {
		return ""
	}
	return v.Message
}

func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.renderDashboard(w, r, http.StatusOK, AdminView{Notice: notices[r.URL.Query().Get("notice")]})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) || !parseForm(w, r) {
		return
	}

	form := forms.ParseRegister(r.PostForm)
	values := map[string]string{
		"first_name": form.FirstName,
		"last_name":  form.LastName,
		"email":      form.Email,
		"role":       form.Role,
	}

	if errs := form.Validate(); errs.Any() {
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, AdminView{Form: formAddUser, Values: values, Errors: errs})
		return
	}

	user, err := h.dir.CreateUser(r.Context(), directory.NewUser{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password,
		Role:      form.Role,
	})
	if err != nil {
		h.writeFailed(w, r, err, AdminView{Form: formAddUser, Values: values})
		return
	}

	log.Info().Str("user_id", user.UserID.String()).Str("by", actorID(r)).Msg("Administrator added user")
	redirectNotice(w, r, "user_created")
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) || !parseForm(w, r) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	form := forms.ParseEditUser(r.PostForm)
	view := AdminView{Form: formEditUser, EditID: id.String(), Values: map[string]string{
		"first_name": form.FirstName,
		"last_name":  form.LastName,
		"email":      form.Email,
		"role":       form.Role,
		"status":     form.Status,
	}}

	if errs := form.Validate(); errs.Any() {
		view.Errors = errs
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	if _, err := h.dir.UpdateUser(r.Context(), id, directory.UserUpdate{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Role:      form.Role,
		Status:    form.Status,
	}); err != nil {
		h.writeFailed(w, r, err, view)
		return
	}

	log.Info().Str("user_id", id.String()).Str("by", actorID(r)).Msg("Administrator updated user")
	redirectNotice(w, r, "user_updated")
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) || !parseForm(w, r) {
		return
	}

	form := forms.ParseDepartment(r.PostForm)
	view := AdminView{Form: formAddDepartment, Values: map[string]string{"name": form.Name}}

	if errs := form.Validate(); errs.Any() {
		view.Errors = errs
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	dept, err := h.dir.CreateDepartment(r.Context(), form.Name)
	if err != nil {
		h.writeFailed(w, r, err, view)
		return
	}

	log.Info().Str("department_id", dept.DepartmentID.String()).Str("by", actorID(r)).Msg("Department created")
	redirectNotice(w, r, "department_created")
}

func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) || !parseForm(w, r) {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	form := forms.ParseDepartment(r.PostForm)
	view := AdminView{Form: formEditDept, EditID: id.String(), Values: map[string]string{
		"name":   form.Name,
		"status": form.Status,
	}}

	if errs := form.Validate(); errs.Any() {
		view.Errors = errs
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	if _, err := h.dir.UpdateDepartment(r.Context(), id, form.Name, form.Status); err != nil {
		h.writeFailed(w, r, err, view)
		return
	}

	log.Info().Str("department_id", id.String()).Str("by", actorID(r)).Msg("Department updated")
	redirectNotice(w, r, "department_updated")
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) || !parseForm(w, r) {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	form := forms.ParseEmployee(r.PostForm)
	view := AdminView{Form: formAddEmployee, Values: employeeValues(r)}

	if errs := form.Validate(); errs.Any() {
		view.Errors = errs
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	emp, err := h.dir.CreateEmployee(r.Context(), actor, directory.NewEmployee{
		UserID:       form.UserID,
		DepartmentID: form.DepartmentID,
		Position:     form.Position,
		HireDate:     form.HireDate,
		Status:       form.Status,
	})
	if err != nil {
		h.writeFailed(w, r, err, view)
		return
	}

	log.Info().Str("employee_id", emp.EmployeeID.String()).Str("by", actor.UserID.String()).Msg("Employee created")
	redirectNotice(w, r, "employee_created")
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) || !parseForm(w, r) {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	form := forms.ParseEmployee(r.PostForm)
	view := AdminView{Form: formEditEmployee, EditID: id.String(), Values: employeeValues(r)}

	if errs := form.ValidateEdit(); errs.Any() {
		view.Errors = errs
		h.renderDashboard(w, r, http.StatusUnprocessableEntity, view)
		return
	}

	if _, err := h.dir.UpdateEmployee(r.Context(), actor, id, directory.EmployeeUpdate{
		DepartmentID: form.DepartmentID,
		Position:     form.Position,
		HireDate:     form.HireDate,
		Status:       form.Status,
	}); err != nil {
		h.writeFailed(w, r, err, view)
		return
	}

	log.Info().Str("employee_id", id.String()).Str("by", actor.UserID.String()).Msg("Employee updated")
	redirectNotice(w, r, "employee_updated")
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, view AdminView) {
	ctx := r.Context()
	var err error

	if view.Users, err = h.dir.ListUsers(ctx); err != nil {
		h.loadFailed(w, r, err)
		return
	}
	if view.Departments, err = h.dir.ListDepartments(ctx); err != nil {
		h.loadFailed(w, r, err)
		return
	}
	if view.Employees, err = h.dir.ListEmployees(ctx); err != nil {
		h.loadFailed(w, r, err)
		return
	}
	if view.Candidates, err = h.dir.UsersNotYetEmployees(ctx); err != nil {
		h.loadFailed(w, r, err)
		return
	}
	view.EmployeeStatuses = models.EmployeeStatuses

	h.templates.Render(w, r, status, "admin", view)
}

func (h *Handler) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Msg("Failed to load dashboard")
	h.templates.RenderError(w, r, http.StatusInternalServerError, "Failed to load the dashboard.")
}

// writeFailed maps directory errors onto the dashboard form.
func (h *Handler) writeFailed(w http.ResponseWriter, r *http.Request, err error, view AdminView) {
	status := http.StatusInternalServerError
	errs := forms.Errors{}

	switch {
	case errors.Is(err, store.ErrUserAlreadyExists):
		status = http.StatusConflict
		errs.Add("email", "An account with this email already exists.")
	case errors.Is(err, store.ErrDepartmentAlreadyExists):
		status = http.StatusConflict
		errs.Add("name", "A department with this name already exists.")
	case errors.Is(err, store.ErrEmployeeAlreadyExists):
		status = http.StatusConflict
		errs.Add("user_id", "This user already has an employee record.")
	case errors.Is(err, store.ErrUserNotFound):
		status = http.StatusNotFound
		view.Message = "User not found."
	case errors.Is(err, store.ErrDepartmentNotFound):
		status = http.StatusNotFound
		if view.Form == formAddDepartment || view.Form == formEditDept {
			view.Message = "Department not found."
		} else {
			errs.Add("department_id", "Department not found.")
		}
	case errors.Is(err, store.ErrEmployeeNotFound):
		status = http.StatusNotFound
		view.Message = "Employee record not found."
	default:
		log.Error().Err(err).Str("form", view.Form).Msg("Failed to save changes")
		view.Message = "Failed to save changes. Please try again."
	}

	if errs.Any() {
		view.Errors = errs
	}
	h.renderDashboard(w, r, status, view)
}

// requireAdmin backs up the gate for the admin handlers.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	s, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, gate.LoginRedirect(r.URL.Path), http.StatusFound)
		return false
	}
	if !s.IsAdmin() {
		http.Redirect(w, r, gate.HomeFor(s.Role), http.StatusFound)
		return false
	}
	return true
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (directory.Actor, bool) {
	s, _ := session.FromContext(r.Context())
	id, err := uuid.Parse(s.ID)
	if err != nil {
		h.templates.RenderError(w, r, http.StatusBadRequest, "Your session is not valid. Please sign in again.")
		return directory.Actor{}, false
	}
	return directory.Actor{UserID: id, IPAddress: httpmw.ClientIPFromContext(r.Context())}, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.templates.RenderError(w, r, http.StatusNotFound, "Record not found.")
		return uuid.Nil, false
	}
	return id, true
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}
	return true
}

func employeeValues(r *http.Request) map[string]string {
	return map[string]string{
		"user_id":       r.PostForm.Get("user_id"),
		"department_id": r.PostForm.Get("department_id"),
		"position":      r.PostForm.Get("position"),
		"hire_date":     r.PostForm.Get("hire_date"),
		"status":        r.PostForm.Get("status"),
	}
}

func actorID(r *http.Request) string {
	s, _ := session.FromContext(r.Context())
	return s.ID
}

func redirectNotice(w http.ResponseWriter, r *http.Request, notice string) {
	http.Redirect(w, r, gate.AdminPath+"?notice="+notice, http.StatusSeeOther)
}
