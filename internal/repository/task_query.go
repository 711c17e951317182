package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasklist/internal/model"
)

// Task columns usable in searches and orderings.
const (
	ColumnTitle       = "title"
	ColumnDescription = "description"
	ColumnDueDate     = "due_date"
	ColumnPriority    = "priority"
	ColumnIsCompleted = "is_completed"
)

type predicate struct {
	sql  string
	args []interface{}
}

// TaskQuery accumulates restrictions and orderings for a task listing.
// Nothing touches the database until it is handed to TaskRepository.Count
// or TaskRepository.Fetch; every predicate is ANDed with the others.
type TaskQuery struct {
	owner      *uuid.UUID
	predicates []predicate
	orders     []string
	preload    bool
}

func NewTaskQuery() *TaskQuery {
	return &TaskQuery{}
}

// OwnedBy restricts the query to a single owner.
func (q *TaskQuery) OwnedBy(ownerID uuid.UUID) *TaskQuery {
	q.owner = &ownerID
	return q
}

// Search matches text case-insensitively as a substring of any of columns.
// LIKE wildcards in text are matched literally.
func (q *TaskQuery) Search(text string, columns ...string) *TaskQuery {
	if text == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"

	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		parts[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return q.where("("+strings.Join(parts, " OR ")+")", args...)
}

func (q *TaskQuery) Completed(done bool) *TaskQuery {
	return q.where("is_completed = ?", done)
}

func (q *TaskQuery) WithPriority(p model.Priority) *TaskQuery {
	return q.where("priority = ?", p)
}

// DueFrom keeps tasks due at or after t.
func (q *TaskQuery) DueFrom(t time.Time) *TaskQuery {
	return q.where("due_date >= ?", t.UTC())
}

// DueBefore keeps tasks due strictly before t.
func (q *TaskQuery) DueBefore(t time.Time) *TaskQuery {
	return q.where("due_date < ?", t.UTC())
}

// OrderBy appends ascending orderings.
func (q *TaskQuery) OrderBy(columns ...string) *TaskQuery {
	for _, col := range columns {
		q.orders = append(q.orders, col+" ASC")
	}
	return q
}

// WithOwner preloads the owning user of every task.
func (q *TaskQuery) WithOwner() *TaskQuery {
	q.preload = true
	return q
}

func (q *TaskQuery) where(sql string, args ...interface{}) *TaskQuery {
	q.predicates = append(q.predicates, predicate{sql: sql, args: args})
	return q
}

func (q *TaskQuery) filter(db *gorm.DB) *gorm.DB {
	if q.owner != nil {
		db = db.Where("user_id = ?", *q.owner)
	}
	for _, p := range q.predicates {
		db = db.Where(p.sql, p.args...)
	}
	return db
}

func (q *TaskQuery) order(db *gorm.DB) *gorm.DB {
	for _, o := range q.orders {
		db = db.Order(o)
	}
	// стабильный порядок между страницами
	return db.Order("id ASC")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
