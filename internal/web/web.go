// Package web holds the embedded HTML templates.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"tasklist/internal/listing"
	"tasklist/internal/model"
)

//go:embed templates/*.html
var files embed.FS

// Template names.
const (
	TaskList          = "task_list.html"
	TaskCards         = "_task_cards.html"
	TaskForm          = "task_form.html"
	TaskConfirmDelete = "task_confirm_delete.html"
	Register          = "register.html"
	Login             = "login.html"
	Error             = "error.html"
)

// PageData is what every page template receives. Header and footer only
// need Title and Authenticated.
type PageData struct {
	Title         string
	Authenticated bool

	Message       string
	NonFieldError string
	Errors        map[string]string
	Form          any

	Page       *listing.Page
	Priorities []model.Priority
	Task       *model.Task

	Code int
}

type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates. Times are shown in loc.
func NewRenderer(loc *time.Location, now func() time.Time) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	tmpl, err := template.New("").Funcs(funcs(loc, now)).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Template is handed to gin via SetHTMLTemplate.
func (r *Renderer) Template() *template.Template {
	return r.tmpl
}

// RenderString executes one template into a string, e.g. the task cards
// fragment returned to incremental loads.
func (r *Renderer) RenderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func funcs(loc *time.Location, now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"localTime": func(t time.Time) string {
			return t.In(loc).Format("02.01.2006 15:04")
		},
		"overdue": func(t model.Task) bool {
			return t.IsOverdue(now())
		},
		"priorityClass": func(p model.Priority) string {
			return strings.ToLower(p.String())
		},
	}
}
