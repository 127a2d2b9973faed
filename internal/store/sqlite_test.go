package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-radar/radar-cli/internal/config"
	"github.com/lead-radar/radar-cli/internal/model"
)

func configFor(driver, path string) config.StoreConfig {
	return config.StoreConfig{Driver: driver, Path: path}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testParams() model.RunParams {
	return model.RunParams{
		InputDir:  "data/kbo",
		Output:    "data/processed/leads.csv",
		Format:    "csv",
		Postcodes: []string{"9300", "9400"},
		Months:    18,
		MinScore:  40,
		Limit:     200,
	}
}

func TestSQLiteCreateAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.RunStatusRunning, created.Status)

	got, err := s.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Equal(t, testParams(), got.Params)
	assert.Nil(t, got.Stats)
}

func TestSQLiteCompleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)

	stats := &model.RunStats{
		SourceVersion: "KboOpenData_2025_06",
		Merged:        1200,
		Emitted:       87,
		MalformedRows: 3,
		DurationMs:    1540,
	}
	require.NoError(t, s.CompleteRun(ctx, created.ID, stats))

	got, err := s.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, stats, got.Stats)
}

func TestSQLiteFailRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)

	require.NoError(t, s.FailRun(ctx, created.ID, "required input table missing"))

	got, err := s.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "required input table missing", got.Error)
}

func TestSQLiteRunNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.True(t, eris.Is(err, ErrRunNotFound))

	err = s.CompleteRun(ctx, "missing", &model.RunStats{})
	assert.True(t, eris.Is(err, ErrRunNotFound))

	err = s.FailRun(ctx, "missing", "boom")
	assert.True(t, eris.Is(err, ErrRunNotFound))
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)
	second, err := s.CreateRun(ctx, testParams())
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, second.ID, &model.RunStats{Emitted: 10}))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	running, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, first.ID, running[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, configFor("none", ""))
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	s, err = Open(ctx, configFor("sqlite", filepath.Join(t.TempDir(), "r.db")))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, configFor("mysql", ""))
	assert.Error(t, err)
}

func TestNopStore(t *testing.T) {
	ctx := context.Background()
	s := NopStore{}

	rec, err := s.CreateRun(ctx, model.RunParams{})
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.NoError(t, s.CompleteRun(ctx, "x", nil))
	assert.NoError(t, s.FailRun(ctx, "x", "err"))

	_, err = s.GetRun(ctx, "x")
	assert.True(t, eris.Is(err, ErrRunNotFound))
}
