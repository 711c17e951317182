package admin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tasklist/internal/listing"
	"tasklist/internal/model"
	"tasklist/internal/repository"
)

type filterFunc func(q *repository.TaskQuery, raw string, today time.Time) bool

var filters = map[string]filterFunc{
	"priority": func(q *repository.TaskQuery, raw string, _ time.Time) bool {
		p, ok := model.ParsePriority(raw)
		if ok {
			q.WithPriority(p)
		}
		return ok
	},
	"is_completed": func(q *repository.TaskQuery, raw string, _ time.Time) bool {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			return false
		}
		q.Completed(done)
		return true
	},
	"due_date": func(q *repository.TaskQuery, raw string, today time.Time) bool {
		var from, to time.Time
		switch raw {
		case "today":
			from, to = today, today.AddDate(0, 0, 1)
		case "past_7_days":
			from, to = today.AddDate(0, 0, -7), today.AddDate(0, 0, 1)
		case "this_month":
			from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
			to = from.AddDate(0, 1, 0)
		case "this_year":
			from = time.Date(today.Year(), 1, 1, 0, 0, 0, 0, today.Location())
			to = from.AddDate(1, 0, 0)
		default:
			return false
		}
		q.DueFrom(from).DueBefore(to)
		return true
	},
}

// Result is one page of the staff listing.
type Result struct {
	Model    string            `json:"model"`
	Columns  []string          `json:"columns"`
	Rows     []map[string]any  `json:"rows"`
	Query    string            `json:"q,omitempty"`
	Filters  map[string]string `json:"filters"`
	Page     int               `json:"page"`
	NumPages int               `json:"num_pages"`
	Total    int64             `json:"total"`
}

// Lister lists tasks of every owner according to a ModelAdmin.
type Lister struct {
	tasks listing.TaskSource
	model ModelAdmin
	loc   *time.Location
	now   func() time.Time
}

func NewTaskLister(registry *Registry, tasks listing.TaskSource, loc *time.Location, now func() time.Time) (*Lister, error) {
	m, ok := registry.Get(TaskAdmin.Name)
	if !ok {
		return nil, fmt.Errorf("model %q is not registered", TaskAdmin.Name)
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Lister{tasks: tasks, model: m, loc: loc, now: now}, nil
}

// List applies the search words (q), the registered filters and the page
// from values. Parameters that are not registered are ignored.
func (l *Lister) List(ctx context.Context, values url.Values) (*Result, error) {
	q := repository.NewTaskQuery().WithOwner()

	res := &Result{
		Model:   l.model.Name,
		Columns: append([]string{"id"}, l.model.ListDisplay...),
		Filters: map[string]string{},
	}

	if text := strings.TrimSpace(values.Get("q")); text != "" && len(l.model.SearchFields) > 0 {
		cols := make([]string, 0, len(l.model.SearchFields))
		for _, f := range l.model.SearchFields {
			cols = append(cols, searchColumns[f])
		}
		// каждое слово должно найтись хотя бы в одном из полей
		for _, word := range strings.Fields(text) {
			q.Search(word, cols...)
		}
		res.Query = text
	}

	now := l.now().In(l.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, l.loc)
	for _, name := range l.model.ListFilter {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		if filters[name](q, raw, today) {
			res.Filters[name] = raw
		}
	}

	q.OrderBy(repository.ColumnDueDate)

	total, err := l.tasks.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	w := listing.Paginate(values.Get("page"), total, l.model.PerPage)

	tasks, err := l.tasks.Fetch(ctx, q, w.Offset, w.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	res.Rows = make([]map[string]any, 0, len(tasks))
	for i := range tasks {
		row := map[string]any{"id": tasks[i].ID.String()}
		for _, col := range l.model.ListDisplay {
			row[col] = displayColumns[col](&tasks[i], l.loc)
		}
		res.Rows = append(res.Rows, row)
	}
	res.Page, res.NumPages, res.Total = w.Number, w.NumPages, total
	return res, nil
}
