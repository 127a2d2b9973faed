// Package scorer implements the additive rule engine that turns a merged
// lead into a score with human-readable reasons.
package scorer

import (
	"fmt"
	"strings"

	"github.com/lead-radar/radar-cli/internal/sector"
)

// Input is the per-lead evidence the rules evaluate. It is deliberately flat
// so every rule is independently evaluable.
type Input struct {
	AgeMonths    int
	AgeKnown     bool
	SectorBucket string
	HasNACE      bool
	HasPhone     bool
	HasEmail     bool
	HasWebsite   bool
}

// Rule is one scoring rule. Rules are applied in slice order and each
// triggered rule appends its reason code; a zero-delta rule is informational
// only.
type Rule struct {
	Reason  string
	Delta   int
	Applies func(Input) bool
}

// highValueBuckets earn the sector bonus.
var highValueBuckets = map[string]bool{
	sector.Beauty: true,
	sector.Horeca: true,
	sector.Health: true,
}

// Score bounds enforced on the final total.
const (
	MinScore = 0
	MaxScore = 100
)

// DefaultRules returns the standard rule table. months is the recency window
// and is baked into the recency reason code, so months=18 produces the
// canonical "new<18m".
func DefaultRules(months int) []Rule {
	return []Rule{
		{
			Reason: fmt.Sprintf("new<%dm", months),
			Delta:  30,
			Applies: func(in Input) bool {
				return in.AgeKnown && in.AgeMonths <= months
			},
		},
		{
			Reason:  "sector_high",
			Delta:   15,
			Applies: func(in Input) bool { return highValueBuckets[in.SectorBucket] },
		},
		{
			Reason:  "no_nace",
			Delta:   -5,
			Applies: func(in Input) bool { return !in.HasNACE },
		},
		{
			Reason:  "has_phone",
			Delta:   5,
			Applies: func(in Input) bool { return in.HasPhone },
		},
		{
			Reason:  "has_email",
			Delta:   3,
			Applies: func(in Input) bool { return in.HasEmail },
		},
		{
			Reason:  "has_website",
			Delta:   0,
			Applies: func(in Input) bool { return in.HasWebsite },
		},
	}
}

// Score applies the rules in order and returns the clamped total plus the
// |-joined reason codes of every triggered rule.
func Score(in Input, rules []Rule) (int, string) {
	total := 0
	var reasons []string

	for _, rule := range rules {
		if rule.Applies(in) {
			total += rule.Delta
			reasons = append(reasons, rule.Reason)
		}
	}

	if total < MinScore {
		total = MinScore
	}
	if total > MaxScore {
		total = MaxScore
	}

	return total, strings.Join(reasons, "|")
}

// LiteReasons builds the reason string used in lite mode, where scoring is
// disabled but contact presence is still surfaced.
func LiteReasons(in Input) string {
	reasons := []string{"lite_mode"}
	if in.HasPhone {
		reasons = append(reasons, "has_phone")
	}
	if in.HasEmail {
		reasons = append(reasons, "has_email")
	}
	if in.HasWebsite {
		reasons = append(reasons, "has_website")
	}
	return strings.Join(reasons, "|")
}
