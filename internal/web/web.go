package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"aicruiter/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	PageInterview = "interview.html"
	PageAuth      = "auth.html"
	PageDashboard = "dashboard.html"
)

// Renderer executes the embedded page templates. Every page shares layout.html.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("2 Jan 2006") },
	"dateptr": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("2 Jan 2006 15:04")
	},
	"join":    strings.Join,
	"elapsed": utils.FormatElapsed,
	"rating": func(r *int) string {
		if r == nil {
			return "-"
		}
		return fmt.Sprintf("%d/5", *r)
	},
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageInterview, PageAuth, PageDashboard} {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Pages lists the loaded page names, used by the readiness check.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for name := range r.pages {
		names = append(names, name)
	}
	return names
}

// Execute renders into w. Output is buffered so a template error never leaves a half-written page.
func (r *Renderer) Execute(w io.Writer, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// Render writes a full HTML response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	var buf bytes.Buffer
	if err := r.Execute(&buf, page, data); err != nil {
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// InterviewPage is the candidate entry page.
type InterviewPage struct {
	ID            string
	Role          string
	QuestionCount int
	Duration      int
	SocketPath    string
	VapiPublicKey string
}

// Stars are the selectable ratings.
func (InterviewPage) Stars() []int {
	return []int{1, 2, 3, 4, 5}
}

type AuthPage struct {
	Error string
	Next  string
}

type DashboardPage struct {
	Email      string
	Interviews []DashboardRow
	Scheduled  []DashboardRow
}

type DashboardRow struct {
	ID          string
	Role        string
	Duration    int
	Types       []string
	Questions   int
	Rating      *int
	CreatedAt   time.Time
	ScheduledAt *time.Time
	Link        string
}
