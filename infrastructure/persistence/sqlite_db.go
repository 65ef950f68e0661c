package persistence

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
)

const sqliteDriverName = "kudos_sqlite3"

func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec(`
				PRAGMA busy_timeout = 5000;
				PRAGMA journal_mode = WAL;
				PRAGMA synchronous  = FULL;
				PRAGMA temp_store   = MEMORY;
			`, nil)

			return err
		},
	})
}

// NewSQLiteDB opens the ledger file at path, creating it when missing.
func NewSQLiteDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, errors.Join(errors.New("opening sqlite ledger failed"), err)
	}
	// a single writer keeps every commit ordered
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Join(errors.New("ping sqlite ledger failed"), err)
	}
	return db, nil
}
