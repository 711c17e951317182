// Package admin describes which models the staff listing exposes and how.
// The registry is built once at startup and only read afterwards.
package admin

import (
	"fmt"
	"sort"
	"time"

	"tasklist/internal/model"
	"tasklist/internal/repository"
)

// ModelAdmin is the registration of one model.
type ModelAdmin struct {
	Name         string
	ListDisplay  []string
	ListFilter   []string
	SearchFields []string
	// PerPage defaults to 100.
	PerPage int
}

// TaskAdmin is the registration of model.Task.
var TaskAdmin = ModelAdmin{
	Name:         "tasks",
	ListDisplay:  []string{"title", "user", "due_date", "priority", "is_completed"},
	ListFilter:   []string{"priority", "is_completed", "due_date"},
	SearchFields: []string{"title", "description"},
}

type Registry struct {
	models map[string]ModelAdmin
}

// NewRegistry validates and freezes the given registrations.
func NewRegistry(models ...ModelAdmin) (*Registry, error) {
	r := &Registry{models: make(map[string]ModelAdmin, len(models))}
	for _, m := range models {
		if _, dup := r.models[m.Name]; dup {
			return nil, fmt.Errorf("model %q registered twice", m.Name)
		}
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("model %q: %w", m.Name, err)
		}
		if m.PerPage <= 0 {
			m.PerPage = 100
		}
		m.ListDisplay = append([]string(nil), m.ListDisplay...)
		m.ListFilter = append([]string(nil), m.ListFilter...)
		m.SearchFields = append([]string(nil), m.SearchFields...)
		r.models[m.Name] = m
	}
	return r, nil
}

// Default registers every model of the application.
func Default() *Registry {
	r, err := NewRegistry(TaskAdmin)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Get(name string) (ModelAdmin, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Names lists the registered models alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m ModelAdmin) validate() error {
	if m.Name == "" {
		return fmt.Errorf("empty name")
	}
	for _, f := range m.ListDisplay {
		if _, ok := displayColumns[f]; !ok {
			return fmt.Errorf("unknown display column %q", f)
		}
	}
	for _, f := range m.ListFilter {
		if _, ok := filters[f]; !ok {
			return fmt.Errorf("unknown filter %q", f)
		}
	}
	for _, f := range m.SearchFields {
		if _, ok := searchColumns[f]; !ok {
			return fmt.Errorf("unknown search field %q", f)
		}
	}
	return nil
}

// Колонки, которые умеет показывать листинг задач.
var displayColumns = map[string]func(t *model.Task, loc *time.Location) any{
	"title": func(t *model.Task, _ *time.Location) any { return t.Title },
	"user":  func(t *model.Task, _ *time.Location) any { return t.User.Username },
	"due_date": func(t *model.Task, loc *time.Location) any {
		return t.DueDate.In(loc).Format(time.RFC3339)
	},
	"priority":     func(t *model.Task, _ *time.Location) any { return t.Priority.String() },
	"is_completed": func(t *model.Task, _ *time.Location) any { return t.IsCompleted },
}

var searchColumns = map[string]string{
	"title":       repository.ColumnTitle,
	"description": repository.ColumnDescription,
}
