package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-radar/radar-cli/internal/config"
	"github.com/lead-radar/radar-cli/internal/model"
	"github.com/lead-radar/radar-cli/internal/pipeline"
	"github.com/lead-radar/radar-cli/internal/resolver"
)

func withTestConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Pipeline: config.PipelineConfig{
			Postcodes: []string{"9300", "9400"},
		},
	}
	t.Cleanup(func() { cfg = prev })
}

func TestParsePostcodes(t *testing.T) {
	withTestConfig(t)

	set := parsePostcodes("9000, 9050,B-9060")
	assert.Equal(t, map[string]bool{"9000": true, "9050": true, "9060": true}, set)
}

func TestParsePostcodesFallsBackToConfig(t *testing.T) {
	withTestConfig(t)

	for _, raw := range []string{"", " , ,"} {
		set := parsePostcodes(raw)
		assert.Equal(t, map[string]bool{"9300": true, "9400": true}, set, "raw=%q", raw)
	}
}

func TestRunParams(t *testing.T) {
	opts := pipeline.Options{
		InputDir:  "data/kbo",
		Output:    "out/leads.csv",
		Postcodes: map[string]bool{"9400": true, "9300": true},
		Months:    18,
		MinScore:  40,
		Limit:     200,
		Fast:      true,
	}

	params := runParams(&opts)
	assert.Equal(t, []string{"9300", "9400"}, params.Postcodes)
	assert.Equal(t, "data/kbo", params.InputDir)
	assert.True(t, params.Fast)
	assert.False(t, params.Lite)
}

func TestRunStats(t *testing.T) {
	leads := []model.Lead{{EnterpriseNumber: "0776654321", SourceVersion: "kbo-2025-06"}}
	stats := &pipeline.Stats{
		Merged:            10,
		Emitted:           1,
		ValidationDropped: 2,
		DuplicatesDropped: 1,
		Resolver: resolver.Stats{
			MalformedRows:        3,
			OrphanEstablishments: 1,
			OrphanActivities:     2,
			OrphanContacts:       4,
		},
	}

	got := runStats(leads, stats, 1500*time.Millisecond)
	require.NotNil(t, got)
	assert.Equal(t, "kbo-2025-06", got.SourceVersion)
	assert.Equal(t, 10, got.Merged)
	assert.Equal(t, 1, got.Emitted)
	assert.Equal(t, 7, got.OrphanRows)
	assert.Equal(t, int64(1500), got.DurationMs)
}

func TestRunStatsNoLeads(t *testing.T) {
	got := runStats(nil, &pipeline.Stats{}, time.Second)
	assert.Empty(t, got.SourceVersion)
}

func TestPrintDebugStats(t *testing.T) {
	leads := []model.Lead{
		{EnterpriseNumber: "0776.654.321", StartDate: "2025-01-10"},
		{EnterpriseNumber: "0800.000.004", StartDate: "2025-03-02"},
		{EnterpriseNumber: "0800.000.004", StartDate: ""},
	}

	var buf bytes.Buffer
	printDebugStats(&buf, leads)
	out := buf.String()

	assert.Contains(t, out, "total_records=3")
	assert.Contains(t, out, "unique_enterprises=2")
	assert.Contains(t, out, "min_start_date=2025-01-10")
	assert.Contains(t, out, "max_start_date=2025-03-02")
	assert.Contains(t, out, "sample_enterprise_numbers=[0776654321, 0800000004]")
}

func TestPrintDebugStatsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printDebugStats(&buf, nil)
	assert.Contains(t, buf.String(), "min_start_date=n/a")
}
