package website

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/staffdesk/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// Templates renders pages inside the shared layout. Each page is parsed
// together with the layout once at startup.
type Templates struct {
	pages map[string]*template.Template
}

// PageData is what every page template receives.
type PageData struct {
	Title   string
	Session *session.Session
	Data    any
}

var pageTitles = map[string]string{
	"home":     "Welcome",
	"login":    "Sign in",
	"register": "Create account",
	"admin":    "Administration",
	"profile":  "My profile",
	"error":    "Error",
}

// NewTemplates parses the embedded page templates. customFuncs are merged
// over the default functions.
func NewTemplates(customFuncs template.FuncMap) (*Templates, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(time.DateOnly)
		},
		"label": func(s string) string {
			return strings.ReplaceAll(s, "_", " ")
		},
		"selected": func(a, b string) template.HTMLAttr {
			if a == b {
				return "selected"
			}
			return ""
		},
	}
	maps.Copy(funcs, customFuncs)

	files, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	t := &Templates{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutFile {
			continue
		}

		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		t.pages[name] = tmpl
	}

	return t, nil
}

// Render executes page into a buffer first so a template error never
// produces a half-written response.
func (t *Templates) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tmpl, ok := t.pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("Unknown page template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	pd := PageData{Title: pageTitles[page], Data: data}
	if s, ok := session.FromContext(r.Context()); ok {
		pd.Session = &s
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", pd); err != nil {
		log.Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// ErrorView is the data for the error page.
type ErrorView struct {
	Status  int
	Message string
}

// RenderError shows the error page with status.
func (t *Templates) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	t.Render(w, r, status, "error", ErrorView{Status: status, Message: message})
}
