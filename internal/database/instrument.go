package database

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tasklist/internal/metrics"
)

const startedAtKey = "tasklist:started_at"

// Instrument registers gorm callbacks that record statement latency in
// prometheus and log statements slower than threshold.
func Instrument(db *gorm.DB, log *zap.Logger, threshold time.Duration) error {
	if log == nil {
		log = zap.NewNop()
	}
	cb := db.Callback()
	done := func(op string) func(*gorm.DB) { return observe(op, log, threshold) }

	// Процессоры gorm имеют неэкспортируемый тип, поэтому регистрируем по одному
	errs := []error{
		cb.Create().Before("gorm:create").Register("tasklist:before_create", markStart),
		cb.Create().After("gorm:create").Register("tasklist:after_create", done("create")),
		cb.Query().Before("gorm:query").Register("tasklist:before_query", markStart),
		cb.Query().After("gorm:query").Register("tasklist:after_query", done("query")),
		cb.Update().Before("gorm:update").Register("tasklist:before_update", markStart),
		cb.Update().After("gorm:update").Register("tasklist:after_update", done("update")),
		cb.Delete().Before("gorm:delete").Register("tasklist:before_delete", markStart),
		cb.Delete().After("gorm:delete").Register("tasklist:after_delete", done("delete")),
		cb.Row().Before("gorm:row").Register("tasklist:before_row", markStart),
		cb.Row().After("gorm:row").Register("tasklist:after_row", done("row")),
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func markStart(db *gorm.DB) {
	db.InstanceSet(startedAtKey, time.Now())
}

func observe(operation string, log *zap.Logger, threshold time.Duration) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startedAtKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}
		took := time.Since(started)
		metrics.RecordDBQueryDuration(operation, db.Statement.Table, took)

		if took > threshold {
			sql := db.Statement.SQL.String()
			if len(sql) > 200 {
				sql = sql[:200] + "..."
			}
			log.Warn("slow-query",
				zap.String("operation", operation),
				zap.String("table", db.Statement.Table),
				zap.String("sql", sql),
				zap.Duration("took", took),
			)
		}
	}
}
