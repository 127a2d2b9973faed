// Package provider defines the contract for country-specific registry
// sources. The built-in pipeline reads Belgian dumps; additional countries
// plug in through this interface.
package provider

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lead-radar/radar-cli/internal/model"
)

// RawRecord is one unparsed record from a country source.
type RawRecord map[string]string

// Get returns the trimmed value for a key, or "".
func (r RawRecord) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Provider is a country-specific lead source.
type Provider interface {
	// Country returns the ISO 3166-1 alpha-2 code this provider serves.
	Country() string
	// Search fetches raw records from the country source.
	Search(ctx context.Context, query string, limit int) ([]RawRecord, error)
	// Normalize maps one raw record onto the output lead schema.
	Normalize(raw RawRecord) model.Lead
	// Enrich optionally adds contacts, website or classification.
	Enrich(ctx context.Context, lead model.Lead) (model.Lead, error)
}

// Registry manages available country providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider, keyed by upper-cased country code.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToUpper(p.Country())] = p
}

// Get returns the provider for a country code, or nil.
func (r *Registry) Get(country string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[strings.ToUpper(country)]
}

// List returns the registered country codes, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	countries := make([]string, 0, len(r.providers))
	for country := range r.providers {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	return countries
}
