package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name:      "postgres",
	blob:      "BYTEA",
	timestamp: "TIMESTAMPTZ",
	boolean:   "BOOLEAN",
	serialKey: "BIGSERIAL PRIMARY KEY",
	numbered:  true,
}

// NewPostgresStore connects to dsn and runs migrations.
func NewPostgresStore(dsn string) (Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &sqlStore{db: db, d: postgresDialect, now: time.Now}
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
