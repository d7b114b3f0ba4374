// Package discovery composes domain validation, the transparency log client and
// response parsing into a single discovery call, and records results in the
// subdomain inventory when storage is configured.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"subhunt/pkg/ctlog"
	"subhunt/pkg/domain"
	"subhunt/pkg/logger"
	"subhunt/pkg/storage"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// ErrNoStorage is returned by inventory operations when no storage was configured.
var ErrNoStorage = errors.New("inventory storage is not configured")

// discoverer is the concrete implementation of the Discoverer interface.
type discoverer struct {
	// client queries the transparency log and parses its responses.
	client ctlog.Client
	// storage keeps the inventory. It may be nil.
	storage storage.Storage
}

// Discover runs validate, fetch and parse in sequence.
func (d discoverer) Discover(ctx context.Context, rawDomain string, mode domain.ScanMode) (domain.SubdomainSet, error) {
	target, err := domain.NewDomain(rawDomain)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	if suffix, _ := publicsuffix.PublicSuffix(target.String()); suffix == target.String() {
		logger.Warn(ctx, "target is a public suffix, crt.sh will return names of unrelated owners",
			zap.String("domain", target.String()))
	}

	body, err := d.client.Fetch(ctx, target, mode)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	return d.client.Parse(ctx, body), nil
}

// Record stores the run and upserts its names in one transaction.
func (d discoverer) Record(ctx context.Context,
	rawDomain string,
	mode domain.ScanMode,
	set domain.SubdomainSet) ([]string, error) {
	if d.storage == nil {
		return nil, ErrNoStorage
	}

	target, err := domain.NewDomain(rawDomain)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	var inserted []string
	if err := d.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		run, err := tx.StoreRun(ctx, domain.DiscoveryRun{
			Domain:         target.String(),
			Mode:           mode,
			SubdomainCount: set.Len(),
		})
		if err != nil {
			return fmt.Errorf("could not store run: %w", err)
		}

		inserted, err = tx.UpsertSubdomains(ctx, run.ID, target.String(), set.Sorted(), run.CreatedAt)
		if err != nil {
			return fmt.Errorf("could not upsert subdomains: %w", err)
		}

		logger.Debug(ctx, "recorded discovery run",
			zap.Stringer("runID", run.ID),
			zap.Int("subdomains", set.Len()),
			zap.Int("new", len(inserted)))

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not record discovery: %w", err)
	}

	return inserted, nil
}

// History returns the stored inventory for rawDomain.
func (d discoverer) History(ctx context.Context, rawDomain string) ([]domain.Subdomain, error) {
	if d.storage == nil {
		return nil, ErrNoStorage
	}

	target, err := domain.NewDomain(rawDomain)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	subs, err := d.storage.Subdomains(ctx, target.String())
	if err != nil {
		return nil, fmt.Errorf("could not get subdomains: %w", err)
	}

	return subs, nil
}

// New creates a Discoverer backed by client. storage may be nil when the
// inventory is disabled.
func New(client ctlog.Client, storage storage.Storage) Discoverer {
	return &discoverer{
		client:  client,
		storage: storage,
	}
}
