// Package pipeline orchestrates the lead build: read the located registry
// tables, resolve entities, classify sectors, score, filter, dedupe and
// write the lead list. Two implementations share every piece of merge
// logic and differ only in how they batch the reader.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lead-radar/radar-cli/internal/kbo"
	"github.com/lead-radar/radar-cli/internal/model"
	"github.com/lead-radar/radar-cli/internal/scorer"
	"github.com/lead-radar/radar-cli/internal/sector"
)

// ErrInvalidConfig marks an option set the pipeline refuses to run with.
// Raised before any file I/O.
var ErrInvalidConfig = eris.New("invalid pipeline configuration")

// DefaultChunkSize is the fast-mode batch size when none is configured.
const DefaultChunkSize = 200_000

// Options is the full configuration surface of one pipeline run.
type Options struct {
	InputDir string
	Output   string
	Format   string // "csv" or "xlsx"

	Postcodes map[string]bool // empty = no postcode filter
	City      string
	Query     string
	MinScore  int
	Limit     int // 0 = unlimited
	Months    int

	Lite      bool
	Fast      bool
	ChunkSize int
	DryRun    bool

	Rules []scorer.Rule // empty = scorer.DefaultRules(Months)
	Now   time.Time     // zero = time.Now(), injectable for tests
}

// Validate rejects inconsistent options before any file is touched.
func (o *Options) Validate() error {
	if o.InputDir == "" {
		return eris.Wrap(ErrInvalidConfig, "pipeline: input directory is required")
	}
	if o.Months < 1 {
		return eris.Wrap(ErrInvalidConfig, "pipeline: months must be >= 1")
	}
	if o.MinScore < scorer.MinScore || o.MinScore > scorer.MaxScore {
		return eris.Wrapf(ErrInvalidConfig, "pipeline: min score must be between %d and %d", scorer.MinScore, scorer.MaxScore)
	}
	if o.Limit < 0 {
		return eris.Wrap(ErrInvalidConfig, "pipeline: limit must be >= 0")
	}
	if o.ChunkSize < 0 {
		return eris.Wrap(ErrInvalidConfig, "pipeline: chunksize must be >= 0")
	}
	if o.Fast && o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	switch o.Format {
	case "", FormatCSV, FormatXLSX:
	default:
		return eris.Wrapf(ErrInvalidConfig, "pipeline: unknown output format %q", o.Format)
	}
	if !o.DryRun && o.Output == "" {
		return eris.Wrap(ErrInvalidConfig, "pipeline: output path is required unless dry-run")
	}
	return nil
}

func (o *Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now
}

func (o *Options) rules() []scorer.Rule {
	if len(o.Rules) > 0 {
		return o.Rules
	}
	return scorer.DefaultRules(o.Months)
}

// Pipeline builds the filtered, deduplicated lead list.
type Pipeline interface {
	Build(ctx context.Context) ([]model.Lead, *Stats, error)
}

// New validates the options and picks the execution strategy. Fast mode
// needs a postcode set to prefilter on; without one it degrades to the
// normal row-wise pipeline, which scans each table exactly once anyway.
func New(opts Options) (Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Fast && len(opts.Postcodes) > 0 {
		return &fastPipeline{opts: opts}, nil
	}
	return &normalPipeline{opts: opts}, nil
}

// assemble turns merged leads into scored leads, applying the gates shared
// by both modes: active status, parseable start date, recency window.
func assemble(merged []model.Lead, opts *Options, stats *Stats) []model.Lead {
	now := opts.now()
	rules := opts.rules()

	out := make([]model.Lead, 0, len(merged))
	for _, lead := range merged {
		if !kbo.IsActive(lead.Status) {
			stats.InactiveDropped++
			continue
		}
		if lead.StartDate == "" {
			stats.NoStartDateDropped++
			continue
		}
		age, ok := kbo.MonthsSince(lead.StartDate, now)
		if !ok {
			stats.NoStartDateDropped++
			continue
		}
		if age > opts.Months {
			stats.TooOldDropped++
			continue
		}

		lead.Status = kbo.NormalizeStatus(lead.Status)

		in := scorer.Input{
			AgeMonths:    age,
			AgeKnown:     true,
			SectorBucket: sector.Other,
			HasNACE:      len(lead.NACECodes) > 0,
			HasPhone:     lead.Phone != "",
			HasEmail:     lead.Email != "",
			HasWebsite:   lead.HasWebsite(),
		}

		if opts.Lite {
			lead.NACECodes = nil
			lead.SectorBucket = ""
			lead.ScoreTotal = 0
			lead.ScoreReasons = scorer.LiteReasons(in)
		} else {
			lead.SectorBucket = sector.FromCodes(lead.NACECodes)
			in.SectorBucket = lead.SectorBucket
			lead.ScoreTotal, lead.ScoreReasons = scorer.Score(in, rules)
		}

		if err := validateLead(&lead); err != nil {
			stats.ValidationDropped++
			continue
		}

		out = append(out, lead)
	}

	stats.Assembled = len(out)
	return out
}

// validateLead enforces the export contract: a non-empty identity, a 4-digit
// postcode and an in-range score. Failing records are dropped and counted.
func validateLead(lead *model.Lead) error {
	if lead.EnterpriseNumber == "" {
		return eris.New("pipeline: lead without enterprise number")
	}
	if len(lead.PostalCode) != 4 || !isDigits(lead.PostalCode) {
		return eris.Errorf("pipeline: postal code %q is not 4 digits", lead.PostalCode)
	}
	if lead.ScoreTotal < scorer.MinScore || lead.ScoreTotal > scorer.MaxScore {
		return eris.Errorf("pipeline: score %d out of range", lead.ScoreTotal)
	}
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
