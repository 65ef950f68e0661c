package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"strava-kudos-bot/domain/repository"
	"strava-kudos-bot/infrastructure/utils"
)

const (
	VendorSQLite   = "sqlite"
	VendorPostgres = "postgres"
	VendorMSSQL    = "mssql"
)

// ledgerDialect holds the statements one database vendor needs
type ledgerDialect struct {
	schema         []string
	isProcessed    string
	markProcessed  string
	hasGivenKudos  string
	recordKudos    string
	textTimestamps bool
}

var sqliteDialect = ledgerDialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS kudos_given (
			user_id INTEGER,
			activity_id INTEGER,
			timestamp TEXT,
			PRIMARY KEY (user_id, activity_id)
		)`,
		`CREATE TABLE IF NOT EXISTS processed_activities (
			activity_id INTEGER PRIMARY KEY,
			timestamp TEXT
		)`,
	},
	isProcessed:    `SELECT 1 FROM processed_activities WHERE activity_id = ?`,
	markProcessed:  `INSERT OR REPLACE INTO processed_activities (activity_id, timestamp) VALUES (?, ?)`,
	hasGivenKudos:  `SELECT 1 FROM kudos_given WHERE user_id = ? AND activity_id = ?`,
	recordKudos:    `INSERT OR REPLACE INTO kudos_given (user_id, activity_id, timestamp) VALUES (?, ?, ?)`,
	textTimestamps: true,
}

var postgresDialect = ledgerDialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS kudos_given (
			user_id BIGINT NOT NULL,
			activity_id BIGINT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, activity_id)
		)`,
		`CREATE TABLE IF NOT EXISTS processed_activities (
			activity_id BIGINT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL
		)`,
	},
	isProcessed: `SELECT 1 FROM processed_activities WHERE activity_id=$1`,
	markProcessed: `INSERT INTO processed_activities (activity_id, timestamp) VALUES ($1,$2)
		  ON CONFLICT (activity_id) DO UPDATE SET timestamp=EXCLUDED.timestamp`,
	hasGivenKudos: `SELECT 1 FROM kudos_given WHERE user_id=$1 AND activity_id=$2`,
	recordKudos: `INSERT INTO kudos_given (user_id, activity_id, timestamp) VALUES ($1,$2,$3)
		  ON CONFLICT (user_id, activity_id) DO UPDATE SET timestamp=EXCLUDED.timestamp`,
}

func dialectFor(vendor string) (ledgerDialect, error) {
	switch vendor {
	case "", VendorSQLite:
		return sqliteDialect, nil
	case VendorPostgres:
		return postgresDialect, nil
	case VendorMSSQL:
		return mssqlDialect, nil
	}
	return ledgerDialect{}, fmt.Errorf("unsupported ledger vendor %q", vendor)
}

// LedgerRepository stores processed activities and given kudos.
// Statements run outside explicit transactions so each write is committed on return.
type LedgerRepository struct {
	db      *sql.DB
	dialect ledgerDialect
}

var _ repository.ILedger = (*LedgerRepository)(nil)

func NewLedgerRepository(db *sql.DB, vendor string) (*LedgerRepository, error) {
	dialect, err := dialectFor(vendor)
	if err != nil {
		return nil, err
	}
	return &LedgerRepository{db: db, dialect: dialect}, nil
}

// EnsureLedgerSchema creates the ledger tables if they do not exist.
// Safe to call at startup.
func (r *LedgerRepository) EnsureLedgerSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, ddl := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure ledger schema: %w", err)
		}
	}
	return nil
}

func (r *LedgerRepository) IsActivityProcessed(ctx context.Context, activityID int64) (bool, error) {
	return r.exists(ctx, r.dialect.isProcessed, activityID)
}

func (r *LedgerRepository) MarkActivityProcessed(ctx context.Context, activityID int64) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.markProcessed, activityID, r.timestamp(utils.GetCurrentTime())); err != nil {
		return fmt.Errorf("mark activity %d processed: %w", activityID, err)
	}
	return nil
}

func (r *LedgerRepository) HasGivenKudos(ctx context.Context, userID, activityID int64) (bool, error) {
	return r.exists(ctx, r.dialect.hasGivenKudos, userID, activityID)
}

func (r *LedgerRepository) RecordKudosGiven(ctx context.Context, userID, activityID int64) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.recordKudos, userID, activityID, r.timestamp(utils.GetCurrentTime())); err != nil {
		return fmt.Errorf("record kudos for user %d activity %d: %w", userID, activityID, err)
	}
	return nil
}

func (r *LedgerRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *LedgerRepository) timestamp(t time.Time) interface{} {
	if r.dialect.textTimestamps {
		return t.Format(time.RFC3339Nano)
	}
	return t
}
