package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/lead-radar/radar-cli/internal/kbo"
	"github.com/lead-radar/radar-cli/internal/model"
	"github.com/lead-radar/radar-cli/internal/resolver"
)

// fastPipeline prefilters on the postcode set before resolving, so only a
// small candidate slice of the registry ever enters the accumulator. The
// candidate set is a superset of what the final postcode filter keeps, and
// every candidate's rows are fed completely, so the emitted leads are
// identical to the normal pipeline's.
type fastPipeline struct {
	opts Options
}

func (p *fastPipeline) Build(ctx context.Context) ([]model.Lead, *Stats, error) {
	sources, err := kbo.Locate(p.opts.InputDir, p.opts.Lite)
	if err != nil {
		return nil, nil, err
	}

	res := resolver.New()
	stats := &Stats{FastMode: true}

	// Pass 1a: index addresses and note establishments whose address table
	// postcode matches. Establishment rows without their own postcode pick
	// it up from here, so the match has to be recorded now.
	matchedEst := map[string]bool{}
	if path, ok := sources.Path(kbo.DatasetAddress); ok {
		table := kbo.NewTable(kbo.DatasetAddress, path)
		skipped, err := p.forEachBatch(ctx, table, stats, func(rows []kbo.Row) {
			for _, row := range rows {
				res.AddAddress(row)
				if p.opts.Postcodes[resolver.RowPostalCode(row)] {
					estNum := kbo.NormalizeID(row.Get("establishment_number", "entity_number"))
					if estNum == "" {
						estNum = kbo.NormalizeID(row.Find("establishment"))
					}
					if estNum != "" {
						matchedEst[estNum] = true
					}
				}
			}
		})
		if err != nil {
			return nil, nil, err
		}
		// The address table is scanned only here, so its malformed rows
		// must be counted now. The establishment and enterprise tables
		// are counted on the pass 2 feed instead.
		res.CountMalformed(skipped)
	}

	// Pass 1b: establishments whose own or address-derived postcode matches
	// nominate their enterprise as a candidate.
	candidates := map[string]bool{}
	estPath, _ := sources.Path(kbo.DatasetEstablishment)
	estTable := kbo.NewTable(kbo.DatasetEstablishment, estPath)
	_, err = p.forEachBatch(ctx, estTable, stats, func(rows []kbo.Row) {
		for _, row := range rows {
			est := resolver.MapEstablishment(row)
			if est.EnterpriseNumber == "" {
				continue
			}
			if p.opts.Postcodes[est.PostalCode] || matchedEst[est.EstablishmentNumber] {
				candidates[est.EnterpriseNumber] = true
			}
		}
	})
	if err != nil {
		return nil, nil, err
	}

	// Pass 1c: enterprises whose own postcode matches are candidates too.
	// Some of these lose the postcode race to an establishment later and
	// get dropped by the final filter, exactly as in the normal pipeline.
	entPath, _ := sources.Path(kbo.DatasetEnterprise)
	entTable := kbo.NewTable(kbo.DatasetEnterprise, entPath)
	_, err = p.forEachBatch(ctx, entTable, stats, func(rows []kbo.Row) {
		for _, row := range rows {
			ent := resolver.MapEnterprise(row)
			if ent.EnterpriseNumber != "" && p.opts.Postcodes[ent.PostalCode] {
				candidates[ent.EnterpriseNumber] = true
			}
		}
	})
	if err != nil {
		return nil, nil, err
	}

	stats.Candidates = len(candidates)
	zap.L().Debug("pipeline: fast candidate set built",
		zap.Int("candidates", len(candidates)),
		zap.Int("matched_establishments", len(matchedEst)),
	)

	// Pass 2: feed every row belonging to a candidate enterprise. All of a
	// candidate's establishments go in, so the best-establishment choice
	// and the establishment-to-enterprise contact translation match the
	// normal pipeline row for row.
	isCandidate := func(entNum string) bool { return candidates[entNum] }

	if err := feedEstablishments(ctx, estTable, res, func(row kbo.Row) bool {
		return isCandidate(kbo.NormalizeID(row.Get("enterprise_number")))
	}); err != nil {
		return nil, nil, err
	}
	if err := feedEnterprises(ctx, entTable, res, func(row kbo.Row) bool {
		return isCandidate(kbo.NormalizeID(row.Get("enterprise_number", "entity_number")))
	}); err != nil {
		return nil, nil, err
	}
	if path, ok := sources.Path(kbo.DatasetDenomination); ok {
		table := kbo.NewTable(kbo.DatasetDenomination, path)
		if err := feedDenominations(ctx, table, res, func(row kbo.Row) bool {
			return isCandidate(kbo.NormalizeID(row.Get("entity_number", "enterprise_number")))
		}); err != nil {
			return nil, nil, err
		}
	}
	if path, ok := sources.Path(kbo.DatasetActivity); ok {
		table := kbo.NewTable(kbo.DatasetActivity, path)
		if err := feedActivities(ctx, table, res, func(row kbo.Row) bool {
			return isCandidate(kbo.NormalizeID(row.Get("enterprise_number", "entity_number")))
		}); err != nil {
			return nil, nil, err
		}
	}
	if path, ok := sources.Path(kbo.DatasetContact); ok {
		table := kbo.NewTable(kbo.DatasetContact, path)
		if err := feedContacts(ctx, table, res, func(row kbo.Row) bool {
			entNum := kbo.NormalizeID(row.Get("entity_number", "enterprise_number", "establishment_number"))
			if translated, ok := res.EnterpriseFor(entNum); ok {
				entNum = translated
			}
			return isCandidate(entNum)
		}); err != nil {
			return nil, nil, err
		}
	}

	merged := res.Merged(sources.Version)
	stats.Resolver = *res.Stats()
	stats.Merged = len(merged)

	leads := finish(merged, &p.opts, stats)
	return leads, stats, nil
}

// forEachBatch streams a table in chunks of the configured size, returning
// the number of malformed rows the reader skipped. The per-batch callback
// sees rows in file order, so batch boundaries are invisible to the merge
// semantics.
func (p *fastPipeline) forEachBatch(ctx context.Context, t *kbo.Table, stats *Stats, fn func(rows []kbo.Row)) (int, error) {
	batch := make([]kbo.Row, 0, p.opts.ChunkSize)
	flush := func() {
		if len(batch) > 0 {
			fn(batch)
			stats.Batches++
			batch = batch[:0]
		}
	}
	skipped, err := t.ForEach(ctx, func(row kbo.Row) error {
		batch = append(batch, row)
		if len(batch) >= p.opts.ChunkSize {
			flush()
		}
		return nil
	})
	flush()
	return skipped, err
}
