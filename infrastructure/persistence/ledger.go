package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"strava-kudos-bot/infrastructure/configuration"
	"strava-kudos-bot/infrastructure/logger"
)

// NewLedger opens the configured ledger database and ensures its schema.
// The caller owns the returned *sql.DB and must close it.
func NewLedger(ctx context.Context, cfg configuration.Ledger) (*sql.DB, *LedgerRepository, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Vendor {
	case "", VendorSQLite:
		db, err = NewSQLiteDB(cfg.Path)
	case VendorPostgres:
		db, err = NewPostgreSQLDB(cfg.DSN)
	case VendorMSSQL:
		db, err = NewMSSQLDB(cfg.DSN)
	default:
		return nil, nil, fmt.Errorf("unsupported ledger vendor %q", cfg.Vendor)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s ledger: %w", cfg.Vendor, err)
	}

	repo, err := NewLedgerRepository(db, cfg.Vendor)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := repo.EnsureLedgerSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"vendor": cfg.Vendor,
		"path":   cfg.Path,
	}).Info("Ledger ready")
	return db, repo, nil
}
