package domain

import (
	"regexp"
	"strings"
	"subhunt/pkg/serrors"
)

// domainPattern accepts two or more dot-separated labels of 1-63 ASCII letters,
// digits or hyphens where no label starts or ends with a hyphen. Both cases are
// listed explicitly: (?i) would also fold non-ASCII runes such as U+017F into [a-z].
var domainPattern = regexp.MustCompile( //nolint: gochecknoglobals
	`^(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)

// Domain is a target that passed DNS syntax validation. The zero value is not a
// valid target; use NewDomain to obtain one.
type Domain struct {
	name string
}

// NewDomain validates raw and returns it lowercased as a Domain. Malformed input
// yields an error of kind serrors.ErrInvalidDomain carrying the offending string.
func NewDomain(raw string) (Domain, error) {
	if !domainPattern.MatchString(raw) {
		return Domain{}, serrors.With(serrors.ErrInvalidDomain, "invalid domain format: %q", raw)
	}

	return Domain{name: strings.ToLower(raw)}, nil
}

// String returns the lowercased domain name.
func (d Domain) String() string { return d.name }

// IsZero reports whether d was not produced by NewDomain.
func (d Domain) IsZero() bool { return d.name == "" }

// ScanMode selects which certificates the transparency log query covers.
type ScanMode string

const (
	// ScanModeQuick excludes expired certificates from the query.
	ScanModeQuick ScanMode = "quick"
	// ScanModeComplete includes expired certificates.
	ScanModeComplete ScanMode = "complete"
)

// ScanModeFor maps the complete-scan toggle to a ScanMode.
func ScanModeFor(complete bool) ScanMode {
	if complete {
		return ScanModeComplete
	}

	return ScanModeQuick
}
