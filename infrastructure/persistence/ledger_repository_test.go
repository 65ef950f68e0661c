package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"strava-kudos-bot/infrastructure/configuration"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_IsActivityProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewLedgerRepository(db, VendorPostgres)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM processed_activities WHERE activity_id=$1`)).
		WithArgs(int64(1001)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM processed_activities WHERE activity_id=$1`)).
		WithArgs(int64(1002)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	processed, err := repo.IsActivityProcessed(context.Background(), 1001)
	require.NoError(t, err)
	require.True(t, processed)

	processed, err = repo.IsActivityProcessed(context.Background(), 1002)
	require.NoError(t, err)
	require.False(t, processed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_HasGivenKudos_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewLedgerRepository(db, VendorPostgres)
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM kudos_given WHERE user_id=$1 AND activity_id=$2`)).
		WithArgs(int64(42), int64(5001)).
		WillReturnError(boom)

	given, err := repo.HasGivenKudos(context.Background(), 42, 5001)
	require.ErrorIs(t, err, boom)
	require.False(t, given)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_RecordKudosGiven_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewLedgerRepository(db, VendorPostgres)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kudos_given (user_id, activity_id, timestamp) VALUES ($1,$2,$3)`)).
		WithArgs(int64(42), int64(5001), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordKudosGiven(context.Background(), 42, 5001))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_MarkActivityProcessed_MSSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewLedgerRepository(db, VendorMSSQL)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`MERGE dbo.[processed_activities] AS target`)).
		WithArgs(int64(1001), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkActivityProcessed(context.Background(), 1001))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_WriteError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewLedgerRepository(db, VendorSQLite)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT OR REPLACE INTO processed_activities`)).
		WillReturnError(errors.New("disk I/O error"))

	err = repo.MarkActivityProcessed(context.Background(), 1001)
	require.ErrorContains(t, err, "mark activity 1001 processed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_EnsureLedgerSchema_MSSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewLedgerRepository(db, VendorMSSQL)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`OBJECT_ID(N'dbo.kudos_given')`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`OBJECT_ID(N'dbo.processed_activities')`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureLedgerSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewLedgerRepository_UnknownVendor(t *testing.T) {
	_, err := NewLedgerRepository(nil, "oracle")
	require.ErrorContains(t, err, "unsupported ledger vendor")
}

func TestSQLiteLedger_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := configuration.Ledger{Vendor: VendorSQLite, Path: filepath.Join(t.TempDir(), "strava_bot.db")}

	db, repo, err := NewLedger(ctx, cfg)
	require.NoError(t, err)

	require.NoError(t, repo.RecordKudosGiven(ctx, 42, 5001))
	require.NoError(t, repo.RecordKudosGiven(ctx, 42, 5001))
	require.NoError(t, repo.MarkActivityProcessed(ctx, 1001))
	require.NoError(t, db.Close())

	db, repo, err = NewLedger(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	given, err := repo.HasGivenKudos(ctx, 42, 5001)
	require.NoError(t, err)
	require.True(t, given)

	given, err = repo.HasGivenKudos(ctx, 42, 5002)
	require.NoError(t, err)
	require.False(t, given)

	processed, err := repo.IsActivityProcessed(ctx, 1001)
	require.NoError(t, err)
	require.True(t, processed)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kudos_given`).Scan(&rows))
	require.Equal(t, 1, rows)
}

func TestNormalizeMSSQLDSN(t *testing.T) {
	require.Equal(t,
		"sqlserver://sa:pw@localhost:1433?TrustServerCertificate=true&database=kudos&encrypt=true",
		normalizeMSSQLDSN("sqlserver://sa:pw@localhost:1433?database=kudos"))
	require.Equal(t,
		"sqlserver://sa:pw@db.example.com:1433?encrypt=disable",
		normalizeMSSQLDSN("sqlserver://sa:pw@db.example.com:1433?encrypt=disable"))
	require.Equal(t, "server=.;user id=sa", normalizeMSSQLDSN("server=.;user id=sa"))
}
