package database

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteDriverName is go-sqlite3 with a Unicode-aware lower(). The builtin
// one folds ASCII only, so case-insensitive search missed Cyrillic text.
const SQLiteDriverName = "sqlite3_unicode"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", func(s string) string {
				return strings.ToLower(s)
			}, true)
		},
	})
}

// SQLiteDialector opens the sqlite file at path through SQLiteDriverName.
func SQLiteDialector(path string) gorm.Dialector {
	return &sqlite.Dialector{
		DriverName: SQLiteDriverName,
		DSN:        SQLiteDSN(path),
	}
}
