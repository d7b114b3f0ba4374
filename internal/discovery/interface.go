package discovery

import (
	"context"
	"subhunt/pkg/domain"
)

// Discoverer finds subdomains of a domain through certificate transparency and
// optionally keeps an inventory of them.
type Discoverer interface {
	// Discover validates rawDomain, queries the transparency log once and returns
	// the distinct concrete hostnames found. Validation and upstream errors are
	// returned unchanged; an undecodable response yields an empty set.
	Discover(ctx context.Context, rawDomain string, mode domain.ScanMode) (domain.SubdomainSet, error)
	// Record stores a discovery result in the inventory and returns the names that
	// were never seen before for the domain, sorted.
	Record(ctx context.Context, rawDomain string, mode domain.ScanMode, set domain.SubdomainSet) ([]string, error)
	// History returns the inventory of the domain ordered by name.
	History(ctx context.Context, rawDomain string) ([]domain.Subdomain, error)
}
