// Package store persists run history: one record per pipeline execution
// with its parameters, outcome and summary counters.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lead-radar/radar-cli/internal/config"
	"github.com/lead-radar/radar-cli/internal/model"
)

// ErrRunNotFound is returned when a run id matches no record.
var ErrRunNotFound = eris.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the run-history persistence interface.
type Store interface {
	CreateRun(ctx context.Context, params model.RunParams) (*model.RunRecord, error)
	CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error
	FailRun(ctx context.Context, runID string, message string) error
	GetRun(ctx context.Context, runID string) (*model.RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open builds the configured store backend. Driver "none" disables run
// history and returns a no-op store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "none":
		return NopStore{}, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// NopStore discards everything. Used when run history is disabled.
type NopStore struct{}

func (NopStore) CreateRun(context.Context, model.RunParams) (*model.RunRecord, error) {
	return &model.RunRecord{}, nil
}
func (NopStore) CompleteRun(context.Context, string, *model.RunStats) error { return nil }
func (NopStore) FailRun(context.Context, string, string) error              { return nil }
func (NopStore) GetRun(context.Context, string) (*model.RunRecord, error) {
	return nil, ErrRunNotFound
}
func (NopStore) ListRuns(context.Context, RunFilter) ([]model.RunRecord, error) { return nil, nil }
func (NopStore) Migrate(context.Context) error                                  { return nil }
func (NopStore) Close() error                                                   { return nil }
