package provider

import (
	"context"
	"strconv"
	"strings"

	"github.com/lead-radar/radar-cli/internal/model"
)

// templateSourceVersion marks leads produced from the template provider.
const templateSourceVersion = "provider-template"

// TemplateProvider is a starting point for new country integrations. It
// compiles and satisfies the Provider contract but returns no data; copy it
// and fill in a real country source.
type TemplateProvider struct{}

// NewTemplateProvider returns the skeleton provider for country "XX".
func NewTemplateProvider() *TemplateProvider {
	return &TemplateProvider{}
}

// Country returns the placeholder code "XX".
func (p *TemplateProvider) Country() string { return "XX" }

// Search returns no records. A real provider queries the country registry
// here and honors ctx and limit.
func (p *TemplateProvider) Search(_ context.Context, _ string, _ int) ([]RawRecord, error) {
	return nil, nil
}

// Normalize maps a raw record onto the output lead schema. Missing fields
// stay empty rather than failing; the pipeline's validation pass decides
// what to drop.
func (p *TemplateProvider) Normalize(raw RawRecord) model.Lead {
	lead := model.Lead{
		EnterpriseNumber: raw.Get("enterprise_number"),
		Name:             raw.Get("name"),
		Status:           raw.Get("status"),
		StartDate:        raw.Get("start_date"),
		Address:          raw.Get("address"),
		PostalCode:       raw.Get("postal_code"),
		City:             raw.Get("city"),
		SectorBucket:     raw.Get("sector_bucket"),
		Phone:            raw.Get("phone"),
		Email:            raw.Get("email"),
		Website:          raw.Get("website"),
		ScoreReasons:     raw.Get("score_reasons"),
		SourceVersion:    templateSourceVersion,
	}
	if codes := raw.Get("nace_codes"); codes != "" {
		for _, code := range strings.Split(codes, ",") {
			if code = strings.TrimSpace(code); code != "" {
				lead.NACECodes = append(lead.NACECodes, code)
			}
		}
	}
	if score := raw.Get("score_total"); score != "" {
		if n, err := strconv.Atoi(score); err == nil {
			lead.ScoreTotal = n
		}
	}
	return lead
}

// Enrich is a no-op for the template.
func (p *TemplateProvider) Enrich(_ context.Context, lead model.Lead) (model.Lead, error) {
	return lead, nil
}
