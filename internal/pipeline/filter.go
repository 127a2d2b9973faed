package pipeline

import (
	"strings"

	"github.com/lead-radar/radar-cli/internal/model"
)

// applyFilters keeps leads matching every configured criterion, then drops
// near-duplicates, then truncates to the limit. Order matters: the limit
// must never hide a higher-scoring lead behind a duplicate.
func applyFilters(leads []model.Lead, opts *Options, stats *Stats) []model.Lead {
	kept := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		if !matches(&lead, opts) {
			stats.FilteredOut++
			continue
		}
		kept = append(kept, lead)
	}

	kept = dedupe(kept, stats)

	if opts.Limit > 0 && len(kept) > opts.Limit {
		stats.LimitDropped = len(kept) - opts.Limit
		kept = kept[:opts.Limit]
	}

	stats.Emitted = len(kept)
	return kept
}

func matches(lead *model.Lead, opts *Options) bool {
	if len(opts.Postcodes) > 0 && !opts.Postcodes[lead.PostalCode] {
		return false
	}
	if lead.ScoreTotal < opts.MinScore {
		return false
	}
	if opts.City != "" && !strings.Contains(strings.ToLower(lead.City), strings.ToLower(opts.City)) {
		return false
	}
	if opts.Query != "" {
		haystack := strings.ToLower(lead.Name + " " + lead.SectorBucket)
		if !strings.Contains(haystack, strings.ToLower(opts.Query)) {
			return false
		}
	}
	return true
}

// dedupe keeps the first lead per folded name+address key. Input order is
// preserved, so callers that sort first keep the best occurrence.
func dedupe(leads []model.Lead, stats *Stats) []model.Lead {
	seen := make(map[string]bool, len(leads))
	out := leads[:0]
	for _, lead := range leads {
		key := lead.DedupeKey()
		if seen[key] {
			stats.DuplicatesDropped++
			continue
		}
		seen[key] = true
		out = append(out, lead)
	}
	return out
}
