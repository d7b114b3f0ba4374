package postgres

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"subhunt/pkg/domain"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	runsTable       = "discovery_runs"
	subdomainsTable = "subdomains"

	// upsertBatchSize keeps a single INSERT well below the 65535 bind parameter limit.
	upsertBatchSize = 1000
)

func (p *PgSQL) StoreRun(ctx context.Context, run domain.DiscoveryRun) (*domain.DiscoveryRun, error) {
	var row PgRun
	row.FromDomain(run)

	var stored PgRun
	found, err := p.Builder.Insert(runsTable).
		Rows(row).
		Returning(&PgRun{}).
		Executor().ScanStructContext(ctx, &stored)
	if err != nil {
		return nil, fmt.Errorf("could not store run into pg: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("could not store run into pg: no row returned")
	}

	return stored.ToDomain(), nil
}

// UpsertSubdomains inserts names in batches; duplicates in names are collapsed
// first since one statement may not touch the same row twice. PostgreSQL sets xmax to zero on
// freshly inserted tuples, which tells inserted rows apart from updated ones in
// the RETURNING clause.
func (p *PgSQL) UpsertSubdomains(ctx context.Context,
	runID domain.RunID,
	domainName string,
	names []string,
	seenAt time.Time) ([]string, error) {
	names = slices.Clone(names)
	slices.Sort(names)
	names = slices.Compact(names)

	inserted := make([]string, 0)

	for start := 0; start < len(names); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(names))

		rows := make([]PgSubdomain, 0, end-start)
		for _, name := range names[start:end] {
			rows = append(rows, PgSubdomain{
				Domain:      domainName,
				Name:        name,
				FirstSeenAt: seenAt,
				LastSeenAt:  seenAt,
				LastRunID:   uuid.UUID(runID),
			})
		}

		var result []struct {
			Name     string `db:"name"`
			Inserted bool   `db:"inserted"`
		}
		if err := p.Builder.Insert(subdomainsTable).
			Rows(rows).
			OnConflict(goqu.DoUpdate("domain, name", goqu.Record{
				"last_seen_at": goqu.L("EXCLUDED.last_seen_at"),
				"last_run_id":  goqu.L("EXCLUDED.last_run_id"),
			})).
			Returning(goqu.C("name"), goqu.L("(xmax = 0)").As("inserted")).
			Executor().ScanStructsContext(ctx, &result); err != nil {
			return nil, fmt.Errorf("could not upsert subdomains into pg: %w", err)
		}

		for _, r := range result {
			if r.Inserted {
				inserted = append(inserted, r.Name)
			}
		}
	}

	sort.Strings(inserted)

	return inserted, nil
}

func (p *PgSQL) Subdomains(ctx context.Context, domainName string) ([]domain.Subdomain, error) {
	var rows []PgSubdomain
	if err := p.Builder.From(subdomainsTable).
		Where(goqu.I("domain").Eq(domainName)).
		Order(goqu.I("name").Asc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch subdomains from pg: %w", err)
	}

	return pgSubdomainsToDomain(rows), nil
}
