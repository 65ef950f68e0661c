package persistence

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// NewPostgreSQLDB creates a sql.DB for PostgreSQL from a lib/pq connection string.
func NewPostgreSQLDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
