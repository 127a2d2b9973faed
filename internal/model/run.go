package model

import "time"

// RunStatus is the lifecycle state of a recorded pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams captures the effective build configuration of a run.
type RunParams struct {
	InputDir  string   `json:"input_dir"`
	Output    string   `json:"output,omitempty"`
	Format    string   `json:"format,omitempty"`
	Postcodes []string `json:"postcodes,omitempty"`
	City      string   `json:"city,omitempty"`
	Query     string   `json:"query,omitempty"`
	Months    int      `json:"months"`
	MinScore  int      `json:"min_score"`
	Limit     int      `json:"limit"`
	Lite      bool     `json:"lite,omitempty"`
	Fast      bool     `json:"fast,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty"`
}

// RunStats is the summary persisted when a run completes.
type RunStats struct {
	SourceVersion     string `json:"source_version,omitempty"`
	Merged            int    `json:"merged"`
	Emitted           int    `json:"emitted"`
	MalformedRows     int    `json:"malformed_rows"`
	OrphanRows        int    `json:"orphan_rows"`
	ValidationDropped int    `json:"validation_dropped"`
	DuplicatesDropped int    `json:"duplicates_dropped"`
	DurationMs        int64  `json:"duration_ms"`
}

// RunRecord is one persisted pipeline run.
type RunRecord struct {
	ID        string    `json:"id"`
	Status    RunStatus `json:"status"`
	Params    RunParams `json:"params"`
	Stats     *RunStats `json:"stats,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
