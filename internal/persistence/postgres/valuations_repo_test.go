package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynastyops/dynastyval/internal/domain/league"
	"github.com/dynastyops/dynastyval/internal/domain/valuation"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestValuationsRepo_InsertBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewValuationsRepo(db, 5*time.Second)

	snapshot := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	eff := 12.5
	records := []valuation.Record{
		{PlayerID: "rb1", SnapshotDate: snapshot, Position: league.RB, VoR: 85, WAR: 1.7, ScarcityAdj: 1.15, AdjustedVoR: 97.75, DollarPerWAR: &eff},
		{PlayerID: "wr1", SnapshotDate: snapshot, Position: league.WR, VoR: 40, WAR: 0.8, ScarcityAdj: 1.0, AdjustedVoR: 40},
	}

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare("INSERT INTO valuations")
	prepared.ExpectExec().
		WithArgs("rb1", snapshot, league.RB, 85.0, 1.7, 1.15, 97.75, &eff).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prepared.ExpectExec().
		WithArgs("wr1", snapshot, league.WR, 40.0, 0.8, 1.0, 40.0, nil).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.InsertBatch(context.Background(), records)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValuationsRepo_InsertBatchEmptyIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewValuationsRepo(db, 5*time.Second)

	require.NoError(t, repo.InsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValuationsRepo_InsertBatchRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewValuationsRepo(db, 5*time.Second)

	snapshot := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []valuation.Record{
		{PlayerID: "rb1", SnapshotDate: snapshot, Position: league.RB, VoR: 85, WAR: 1.7, ScarcityAdj: 1.15, AdjustedVoR: 97.75},
	}

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare("INSERT INTO valuations")
	prepared.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.InsertBatch(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rb1")
}
