// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"tasklist/internal/config"
	"tasklist/internal/database"
	"tasklist/internal/model"
)

// Clock is a manually advanced time source for gorm's NowFunc.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// OpenDB migrates a fresh sqlite file in t's temp dir and opens gorm on it.
// A nil clock keeps the real time.
func OpenDB(t *testing.T, clock *Clock) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		DBDriver:          database.DriverSQLite,
		SQLitePath:        filepath.Join(t.TempDir(), "test.db"),
		MigrationsEnabled: true,
	}
	require.NoError(t, database.Migrate(cfg, nil))

	gcfg := database.GormConfig()
	if clock != nil {
		gcfg.NowFunc = clock.Now
	}
	db, err := gorm.Open(database.SQLiteDialector(cfg.SQLitePath), gcfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, HashedPassword: "not-a-real-hash"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTask inserts task for owner, defaulting the title and due date.
func CreateTask(t *testing.T, db *gorm.DB, owner *model.User, task model.Task) *model.Task {
	t.Helper()
	task.UserID = owner.ID
	if task.Title == "" {
		task.Title = "task"
	}
	if task.DueDate.IsZero() {
		task.DueDate = time.Now().UTC().Add(48 * time.Hour)
	}
	task.DueDate = task.DueDate.UTC()
	require.NoError(t, db.Create(&task).Error)
	return &task
}
