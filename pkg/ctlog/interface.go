// Package ctlog defines the abstraction over certificate transparency search
// services used to discover hostnames for a domain.
package ctlog

import (
	"context"
	"subhunt/pkg/domain"
)

// Client searches a certificate transparency log service.
//
//go:generate mockgen -package mockctlog -source=interface.go -destination=mock/mockctlog.go *
type Client interface {
	// Fetch issues one search for d and returns the raw response body. Transport
	// failures and non-success statuses are reported as serrors.ErrUpstreamUnavailable.
	Fetch(ctx context.Context, d domain.Domain, mode domain.ScanMode) ([]byte, error)
	// Parse extracts the distinct concrete hostnames from a body returned by Fetch.
	// It never fails: an undecodable body yields an empty set and a logged diagnostic.
	Parse(ctx context.Context, body []byte) domain.SubdomainSet
}
