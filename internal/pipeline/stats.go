package pipeline

import (
	"sort"

	"go.uber.org/zap"

	"github.com/lead-radar/radar-cli/internal/model"
	"github.com/lead-radar/radar-cli/internal/resolver"
)

// Stats is the per-run counter set logged at the end of a build. Resolver
// counters are copied in so one struct tells the whole story.
type Stats struct {
	Resolver resolver.Stats

	Merged             int
	InactiveDropped    int
	NoStartDateDropped int
	TooOldDropped      int
	ValidationDropped  int
	Assembled          int
	FilteredOut        int
	DuplicatesDropped  int
	LimitDropped       int
	Emitted            int

	FastMode   bool
	Candidates int
	Batches    int
}

// Log writes the run summary through the global logger.
func (s *Stats) Log() {
	zap.L().Info("pipeline: run complete",
		zap.Int("merged", s.Merged),
		zap.Int("inactive_dropped", s.InactiveDropped),
		zap.Int("no_start_date_dropped", s.NoStartDateDropped),
		zap.Int("too_old_dropped", s.TooOldDropped),
		zap.Int("validation_dropped", s.ValidationDropped),
		zap.Int("filtered_out", s.FilteredOut),
		zap.Int("duplicates_dropped", s.DuplicatesDropped),
		zap.Int("limit_dropped", s.LimitDropped),
		zap.Int("emitted", s.Emitted),
		zap.Int("malformed_rows", s.Resolver.MalformedRows),
		zap.Int("orphan_establishments", s.Resolver.OrphanEstablishments),
		zap.Int("orphan_activities", s.Resolver.OrphanActivities),
		zap.Int("orphan_contacts", s.Resolver.OrphanContacts),
		zap.Bool("fast", s.FastMode),
	)
}

// BucketCounts tallies leads per sector bucket, highest count first.
func BucketCounts(leads []model.Lead) []BucketCount {
	counts := map[string]int{}
	for _, l := range leads {
		counts[l.SectorBucket]++
	}
	out := make([]BucketCount, 0, len(counts))
	for bucket, n := range counts {
		out = append(out, BucketCount{Bucket: bucket, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Bucket < out[j].Bucket
	})
	return out
}

type BucketCount struct {
	Bucket string
	Count  int
}
