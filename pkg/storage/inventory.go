package storage

import (
	"context"
	"subhunt/pkg/domain"
	"time"
)

// InventoryStorage records discovery runs and the names they found.
type InventoryStorage interface {
	// StoreRun inserts a discovery run and returns it with its generated ID and
	// creation time.
	StoreRun(ctx context.Context, run domain.DiscoveryRun) (*domain.DiscoveryRun, error)
	// UpsertSubdomains records names as seen at seenAt by the given run. Unknown
	// names are inserted with first and last seen set to seenAt; known names only
	// get last seen and run refreshed. It returns the names that were inserted,
	// sorted ascending.
	UpsertSubdomains(ctx context.Context,
		runID domain.RunID,
		domainName string,
		names []string,
		seenAt time.Time) ([]string, error)
	// Subdomains returns every recorded name for the domain ordered by name.
	Subdomains(ctx context.Context, domainName string) ([]domain.Subdomain, error)
}
