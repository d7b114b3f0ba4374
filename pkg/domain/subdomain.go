package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// SubdomainSet is a set of hostnames extracted from certificate log entries.
// Entries are compared exactly as extracted; no case folding is applied.
type SubdomainSet map[string]struct{}

// NewSubdomainSet returns a set holding the given names.
func NewSubdomainSet(names ...string) SubdomainSet {
	s := make(SubdomainSet, len(names))
	for _, n := range names {
		s.Add(n)
	}

	return s
}

// Add inserts name into the set.
func (s SubdomainSet) Add(name string) { s[name] = struct{}{} }

// Contains reports whether name is in the set.
func (s SubdomainSet) Contains(name string) bool {
	_, ok := s[name]

	return ok
}

// Len returns the number of names in the set.
func (s SubdomainSet) Len() int { return len(s) }

// Sorted returns the names in ascending lexicographic order.
func (s SubdomainSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)

	return out
}

// RunID identifies a recorded discovery run.
type RunID uuid.UUID

// String returns the canonical uuid form of the id.
func (id RunID) String() string { return uuid.UUID(id).String() }

// DiscoveryRun describes one recorded discovery for a domain.
type DiscoveryRun struct {
	// ID is the unique identifier of the run.
	ID RunID `json:"id"`
	// Domain is the validated target that was queried.
	Domain string `json:"domain"`
	// Mode is the scan mode the query used.
	Mode ScanMode `json:"mode"`
	// SubdomainCount is the number of distinct names the run found.
	SubdomainCount int `json:"subdomainCount"`
	// CreatedAt is when the run was recorded.
	CreatedAt time.Time `json:"createdAt"`
}

// Subdomain is an inventory entry for a name discovered under a domain.
type Subdomain struct {
	// Domain is the target the name was discovered for.
	Domain string `json:"domain"`
	// Name is the discovered hostname.
	Name string `json:"name"`
	// FirstSeenAt is when a run found the name for the first time.
	FirstSeenAt time.Time `json:"firstSeenAt"`
	// LastSeenAt is when a run last found the name.
	LastSeenAt time.Time `json:"lastSeenAt"`
	// LastRunID is the run that last found the name.
	LastRunID RunID `json:"lastRunId"`
}
