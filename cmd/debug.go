package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/lead-radar/radar-cli/internal/kbo"
	"github.com/lead-radar/radar-cli/internal/model"
)

// printDebugStats prints a quick sanity summary of the built lead list:
// record counts, start-date range and a handful of enterprise numbers to
// spot-check against the source dump.
func printDebugStats(w io.Writer, leads []model.Lead) {
	unique := map[string]bool{}
	for i := range leads {
		if num := kbo.NormalizeID(leads[i].EnterpriseNumber); num != "" {
			unique[num] = true
		}
	}
	numbers := make([]string, 0, len(unique))
	for num := range unique {
		numbers = append(numbers, num)
	}
	sort.Strings(numbers)

	var minStart, maxStart time.Time
	for i := range leads {
		parsed, ok := kbo.ParseDate(leads[i].StartDate)
		if !ok {
			continue
		}
		if minStart.IsZero() || parsed.Before(minStart) {
			minStart = parsed
		}
		if maxStart.IsZero() || parsed.After(maxStart) {
			maxStart = parsed
		}
	}
	formatDate := func(t time.Time) string {
		if t.IsZero() {
			return "n/a"
		}
		return t.Format("2006-01-02")
	}

	sample := numbers
	if len(sample) > 10 {
		sample = sample[:10]
	}

	fmt.Fprintf(w, "Debug stats: total_records=%d\n", len(leads))
	fmt.Fprintf(w, "Debug stats: unique_enterprises=%d\n", len(numbers))
	fmt.Fprintf(w, "Debug stats: min_start_date=%s\n", formatDate(minStart))
	fmt.Fprintf(w, "Debug stats: max_start_date=%s\n", formatDate(maxStart))
	fmt.Fprintf(w, "Debug stats: sample_enterprise_numbers=[%s]\n", strings.Join(sample, ", "))
}
