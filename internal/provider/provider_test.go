package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lead-radar/radar-cli/internal/model"
)

type stubProvider struct {
	country string
	records []RawRecord
}

func (p *stubProvider) Country() string { return p.country }

func (p *stubProvider) Search(_ context.Context, _ string, limit int) ([]RawRecord, error) {
	if limit > 0 && limit < len(p.records) {
		return p.records[:limit], nil
	}
	return p.records, nil
}

func (p *stubProvider) Normalize(raw RawRecord) model.Lead {
	return model.Lead{Name: raw.Get("name")}
}

func (p *stubProvider) Enrich(_ context.Context, lead model.Lead) (model.Lead, error) {
	return lead, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubProvider{country: "be"})

	assert.NotNil(t, reg.Get("BE"))
	assert.NotNil(t, reg.Get("be"))
	assert.Nil(t, reg.Get("NL"))
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.List())

	reg.Register(&stubProvider{country: "NL"})
	reg.Register(&stubProvider{country: "BE"})
	reg.Register(NewTemplateProvider())

	assert.Equal(t, []string{"BE", "NL", "XX"}, reg.List())
}

func TestRegistryReplace(t *testing.T) {
	reg := NewRegistry()
	first := &stubProvider{country: "BE"}
	second := &stubProvider{country: "BE"}
	reg.Register(first)
	reg.Register(second)

	got, ok := reg.Get("BE").(*stubProvider)
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Len(t, reg.List(), 1)
}

func TestStubSearchLimit(t *testing.T) {
	p := &stubProvider{
		country: "BE",
		records: []RawRecord{{"name": "a"}, {"name": "b"}, {"name": "c"}},
	}

	got, err := p.Search(context.Background(), "bakery", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTemplateProvider(t *testing.T) {
	p := NewTemplateProvider()
	assert.Equal(t, "XX", p.Country())

	records, err := p.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTemplateNormalize(t *testing.T) {
	p := NewTemplateProvider()
	lead := p.Normalize(RawRecord{
		"enterprise_number": "0123456789",
		"name":              " Salon Demo ",
		"status":            "AC",
		"start_date":        "2025-01-10",
		"postal_code":       "9300",
		"city":              "Aalst",
		"nace_codes":        "96021, 96022",
		"score_total":       "53",
		"phone":             "+32 53 00 00 00",
	})

	assert.Equal(t, "0123456789", lead.EnterpriseNumber)
	assert.Equal(t, "Salon Demo", lead.Name)
	assert.Equal(t, []string{"96021", "96022"}, lead.NACECodes)
	assert.Equal(t, 53, lead.ScoreTotal)
	assert.Equal(t, "provider-template", lead.SourceVersion)
}

func TestTemplateNormalizeIgnoresBadScore(t *testing.T) {
	p := NewTemplateProvider()
	lead := p.Normalize(RawRecord{"name": "x", "score_total": "high"})
	assert.Zero(t, lead.ScoreTotal)
}

func TestTemplateEnrichPassthrough(t *testing.T) {
	p := NewTemplateProvider()
	in := model.Lead{Name: "Frietkot", PostalCode: "9000"}
	out, err := p.Enrich(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
