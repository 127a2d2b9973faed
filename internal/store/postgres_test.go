package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-radar/radar-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresCreateRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "running", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.CreateRun(context.Background(), model.RunParams{InputDir: "data/kbo", Months: 18})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.RunStatusRunning, rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", pgxmock.AnyArg(), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteRun(context.Background(), "run-1", &model.RunStats{Emitted: 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "missing", &model.RunStats{})
	assert.True(t, eris.Is(err, ErrRunNotFound))
}

func TestPostgresFailRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("failed", "boom", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailRun(context.Background(), "run-1", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRun(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	stats := `{"emitted":7}`

	mock.ExpectQuery(`SELECT id, status, params, stats, error, created_at, updated_at FROM runs`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "status", "params", "stats", "error", "created_at", "updated_at"},
		).AddRow("run-1", model.RunStatus("complete"), `{"input_dir":"data/kbo","months":18,"min_score":40,"limit":200}`, &stats, "", now, now))

	rec, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.ID)
	assert.Equal(t, model.RunStatusComplete, rec.Status)
	assert.Equal(t, "data/kbo", rec.Params.InputDir)
	require.NotNil(t, rec.Stats)
	assert.Equal(t, 7, rec.Stats.Emitted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, status, params, stats, error, created_at, updated_at FROM runs`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "params", "stats", "error", "created_at", "updated_at"}))

	_, err := s.GetRun(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrRunNotFound))
}

func TestPostgresListRuns(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, status, params, stats, error, created_at, updated_at FROM runs`).
		WithArgs("complete", 100).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "status", "params", "stats", "error", "created_at", "updated_at"},
		).AddRow("run-1", model.RunStatus("complete"), `{"months":18}`, (*string)(nil), "", now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Nil(t, runs[0].Stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
