package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tasklist/internal/apperr"
	"tasklist/internal/model"
	"tasklist/internal/repository"
)

type TaskSource interface {
	Count(ctx context.Context, q *repository.TaskQuery) (int64, error)
	Fetch(ctx context.Context, q *repository.TaskQuery, offset, limit int) ([]model.Task, error)
}

// Page is one page of an owner's filtered task list.
type Page struct {
	Tasks    []model.Task
	Number   int
	NumPages int
	Total    int64
	Params   Params
}

func (p *Page) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page) HasPrevious() bool { return p.Number > 1 }
func (p *Page) NextNumber() int   { return p.Number + 1 }

// NextURL is the query string of the following page, or "" on the last one.
func (p *Page) NextURL() string {
	if !p.HasNext() {
		return ""
	}
	return p.Params.PageURL(p.NextNumber())
}

type Pipeline struct {
	tasks TaskSource
	loc   *time.Location
	now   func() time.Time
}

// NewPipeline builds a pipeline evaluating calendar-day filters in loc.
// A nil now uses time.Now.
func NewPipeline(tasks TaskSource, loc *time.Location, now func() time.Time) *Pipeline {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Pipeline{tasks: tasks, loc: loc, now: now}
}

// List returns the requested page of owner's tasks. It is read-only.
func (p *Pipeline) List(ctx context.Context, owner uuid.UUID, params Params) (*Page, error) {
	if owner == uuid.Nil {
		return nil, apperr.ErrAccessDenied
	}

	q := p.Query(owner, params)

	total, err := p.tasks.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	w := Paginate(params.Page, total, PageSize)

	tasks, err := p.tasks.Fetch(ctx, q, w.Offset, w.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}

	return &Page{
		Tasks:    tasks,
		Number:   w.Number,
		NumPages: w.NumPages,
		Total:    total,
		Params:   params,
	}, nil
}

// Query builds the task query for owner: text search, status, priority and
// date restrictions in that order, then the ordering.
func (p *Pipeline) Query(owner uuid.UUID, params Params) *repository.TaskQuery {
	q := repository.NewTaskQuery().OwnedBy(owner)

	if params.Query != "" {
		q.Search(params.Query, repository.ColumnTitle, repository.ColumnDescription)
	}

	switch params.Status {
	case StatusCompleted:
		q.Completed(true)
	case StatusNotCompleted:
		q.Completed(false)
	}

	if params.Priority.Valid() {
		q.WithPriority(params.Priority)
	}

	now := p.now().In(p.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc)
	switch params.DateFilter {
	case DateToday:
		q.DueFrom(today).DueBefore(today.AddDate(0, 0, 1))
	case DateWeek:
		// today through today+7, both calendar days included
		q.DueFrom(today).DueBefore(today.AddDate(0, 0, 8))
	case DateOverdue:
		q.DueBefore(now).Completed(false)
	}

	switch params.Sort {
	case SortDueDate:
		q.OrderBy(repository.ColumnDueDate)
	case SortPriority:
		q.OrderBy(repository.ColumnPriority)
	case SortTitle:
		q.OrderBy(repository.ColumnTitle)
	default:
		q.OrderBy(repository.ColumnIsCompleted, repository.ColumnDueDate)
	}

	return q
}
