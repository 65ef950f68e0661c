package persistence

import (
	"database/sql"
	"net/url"
	"time"

	_ "github.com/microsoft/go-mssqldb"
)

// NewMSSQLDB creates a sql.DB for Azure SQL / SQL Server using native database/sql.
// The dsn is a sqlserver:// URL; encrypt is forced on unless the dsn sets it.
func NewMSSQLDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", normalizeMSSQLDSN(dsn))
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(time.Minute)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func normalizeMSSQLDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme != "sqlserver" {
		return dsn
	}
	q := u.Query()
	if q.Get("encrypt") == "" {
		q.Set("encrypt", "true")
	}
	// local containers ship a self-signed certificate
	host := u.Hostname()
	if (host == "localhost" || host == "127.0.0.1") && q.Get("TrustServerCertificate") == "" {
		q.Set("TrustServerCertificate", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
