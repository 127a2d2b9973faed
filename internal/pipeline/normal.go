package pipeline

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/lead-radar/radar-cli/internal/kbo"
	"github.com/lead-radar/radar-cli/internal/model"
	"github.com/lead-radar/radar-cli/internal/resolver"
)

// normalPipeline streams every table once, row by row, into the resolver.
type normalPipeline struct {
	opts Options
}

func (p *normalPipeline) Build(ctx context.Context) ([]model.Lead, *Stats, error) {
	sources, err := kbo.Locate(p.opts.InputDir, p.opts.Lite)
	if err != nil {
		return nil, nil, err
	}

	res := resolver.New()
	stats := &Stats{}

	// Addresses first so establishment rows can pick up their address,
	// establishments before contacts so EST contacts translate.
	feeds := []struct {
		dataset kbo.Dataset
		feed    func(context.Context, *kbo.Table) error
	}{
		{kbo.DatasetAddress, func(ctx context.Context, t *kbo.Table) error { return feedAddresses(ctx, t, res) }},
		{kbo.DatasetEstablishment, func(ctx context.Context, t *kbo.Table) error { return feedEstablishments(ctx, t, res, nil) }},
		{kbo.DatasetEnterprise, func(ctx context.Context, t *kbo.Table) error { return feedEnterprises(ctx, t, res, nil) }},
		{kbo.DatasetDenomination, func(ctx context.Context, t *kbo.Table) error { return feedDenominations(ctx, t, res, nil) }},
		{kbo.DatasetActivity, func(ctx context.Context, t *kbo.Table) error { return feedActivities(ctx, t, res, nil) }},
		{kbo.DatasetContact, func(ctx context.Context, t *kbo.Table) error { return feedContacts(ctx, t, res, nil) }},
	}
	for _, f := range feeds {
		path, ok := sources.Files[f.dataset]
		if !ok {
			continue
		}
		if err := f.feed(ctx, kbo.NewTable(f.dataset, path)); err != nil {
			return nil, nil, err
		}
	}

	merged := res.Merged(sources.Version)
	stats.Resolver = *res.Stats()
	stats.Merged = len(merged)

	leads := finish(merged, &p.opts, stats)
	return leads, stats, nil
}

// finish runs the merge output through the shared gate, sort and filter
// chain. Both modes call it, which is what keeps their results identical.
func finish(merged []model.Lead, opts *Options, stats *Stats) []model.Lead {
	leads := assemble(merged, opts, stats)
	sortLeads(leads)
	leads = applyFilters(leads, opts, stats)
	stats.Log()
	return leads
}

// sortLeads orders score descending, enterprise number ascending on ties.
// The tie-break makes output deterministic across runs and modes.
func sortLeads(leads []model.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		if leads[i].ScoreTotal != leads[j].ScoreTotal {
			return leads[i].ScoreTotal > leads[j].ScoreTotal
		}
		return leads[i].EnterpriseNumber < leads[j].EnterpriseNumber
	})
}

type keepFunc func(row kbo.Row) bool

func feedAddresses(ctx context.Context, t *kbo.Table, res *resolver.Resolver) error {
	skipped, err := t.ForEach(ctx, func(row kbo.Row) error {
		res.AddAddress(row)
		return nil
	})
	res.CountMalformed(skipped)
	return err
}

func feedEstablishments(ctx context.Context, t *kbo.Table, res *resolver.Resolver, keep keepFunc) error {
	skipped, err := t.ForEach(ctx, func(row kbo.Row) error {
		if keep != nil && !keep(row) {
			return nil
		}
		res.AddEstablishment(row)
		return nil
	})
	res.CountMalformed(skipped)
	return err
}

func feedEnterprises(ctx context.Context, t *kbo.Table, res *resolver.Resolver, keep keepFunc) error {
	skipped, err := t.ForEach(ctx, func(row kbo.Row) error {
		if keep != nil && !keep(row) {
			return nil
		}
		res.AddEnterprise(row)
		return nil
	})
	res.CountMalformed(skipped)
	return err
}

func feedDenominations(ctx context.Context, t *kbo.Table, res *resolver.Resolver, keep keepFunc) error {
	skipped, err := t.ForEach(ctx, func(row kbo.Row) error {
		if keep != nil && !keep(row) {
			return nil
		}
		res.AddDenomination(row)
		return nil
	})
	res.CountMalformed(skipped)
	return err
}

func feedActivities(ctx context.Context, t *kbo.Table, res *resolver.Resolver, keep keepFunc) error {
	skipped, err := t.ForEach(ctx, func(row kbo.Row) error {
		if keep != nil && !keep(row) {
			return nil
		}
		res.AddActivity(row)
		return nil
	})
	res.CountMalformed(skipped)
	if skipped > 0 {
		zap.L().Debug("pipeline: activity rows skipped", zap.Int("count", skipped))
	}
	return err
}

func feedContacts(ctx context.Context, t *kbo.Table, res *resolver.Resolver, keep keepFunc) error {
	skipped, err := t.ForEach(ctx, func(row kbo.Row) error {
		if keep != nil && !keep(row) {
			return nil
		}
		res.AddContact(row)
		return nil
	})
	res.CountMalformed(skipped)
	return err
}
