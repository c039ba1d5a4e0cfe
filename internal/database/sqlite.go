package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var sqliteDialect = dialect{
	name:      "sqlite",
	blob:      "BLOB",
	timestamp: "DATETIME",
	boolean:   "BOOLEAN",
	serialKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
}

// NewSQLiteStore creates a SQLite-backed store and runs migrations.
func NewSQLiteStore(path string) (Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &sqlStore{db: db, d: sqliteDialect, now: time.Now}
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
