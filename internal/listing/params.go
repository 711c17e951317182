// Package listing turns list-view query parameters into a filtered, sorted
// and paginated page of one owner's tasks.
package listing

import (
	"net/url"
	"strconv"

	"tasklist/internal/model"
)

type Status string

const (
	StatusAny          Status = ""
	StatusCompleted    Status = "completed"
	StatusNotCompleted Status = "not_completed"
)

type DateFilter string

const (
	DateAny     DateFilter = ""
	DateToday   DateFilter = "today"
	DateWeek    DateFilter = "week"
	DateOverdue DateFilter = "overdue"
)

type SortKey string

const (
	SortDefault  SortKey = ""
	SortDueDate  SortKey = "due_date"
	SortPriority SortKey = "priority"
	SortTitle    SortKey = "title"
)

// Params are the recognised list filters. Unrecognised values are dropped
// during parsing, so a zero field always means "no restriction".
type Params struct {
	Query      string
	Status     Status
	Priority   model.Priority
	DateFilter DateFilter
	Sort       SortKey
	// Page is kept raw; the paginator decides what it resolves to.
	Page string
}

func ParseParams(values url.Values) Params {
	p := Params{
		Query: values.Get("q"),
		Page:  values.Get("page"),
	}

	switch s := Status(values.Get("status")); s {
	case StatusCompleted, StatusNotCompleted:
		p.Status = s
	}

	if prio, ok := model.ParsePriority(values.Get("priority")); ok {
		p.Priority = prio
	}

	switch d := DateFilter(values.Get("date_filter")); d {
	case DateToday, DateWeek, DateOverdue:
		p.DateFilter = d
	}

	switch s := SortKey(values.Get("sort")); s {
	case SortDueDate, SortPriority, SortTitle:
		p.Sort = s
	}

	return p
}

// Values encodes the filters back into query form, without the page.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Status != StatusAny {
		v.Set("status", string(p.Status))
	}
	if p.Priority != 0 {
		v.Set("priority", strconv.Itoa(int(p.Priority)))
	}
	if p.DateFilter != DateAny {
		v.Set("date_filter", string(p.DateFilter))
	}
	if p.Sort != SortDefault {
		v.Set("sort", string(p.Sort))
	}
	return v
}

// PageURL returns the query string selecting page n with the same filters.
func (p Params) PageURL(n int) string {
	v := p.Values()
	v.Set("page", strconv.Itoa(n))
	return "?" + v.Encode()
}
