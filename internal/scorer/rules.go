package scorer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// WeightOverrides remaps rule deltas by reason code. Evaluation order and
// trigger conditions are fixed; only weights are tunable.
type WeightOverrides struct {
	Weights map[string]int `yaml:"weights"`
}

// LoadWeights reads weight overrides from a YAML file of the form:
//
//	weights:
//	  sector_high: 20
//	  has_email: 5
func LoadWeights(path string) (*WeightOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read weights %s", path)
	}

	var overrides WeightOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrap(err, "scorer: parse weights")
	}

	return &overrides, nil
}

// Apply returns a copy of rules with overridden deltas. Unknown reason codes
// in the override file are ignored; rule order is preserved.
func (w *WeightOverrides) Apply(rules []Rule) []Rule {
	if w == nil || len(w.Weights) == 0 {
		return rules
	}

	out := make([]Rule, len(rules))
	copy(out, rules)
	for i := range out {
		if delta, ok := w.Weights[out[i].Reason]; ok {
			out[i].Delta = delta
		}
	}
	return out
}
