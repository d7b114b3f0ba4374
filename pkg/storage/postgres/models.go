package postgres

import (
	"subhunt/pkg/domain"
	"time"

	"github.com/google/uuid"
)

// PgRun is the row representation of a discovery run.
type PgRun struct {
	ID             uuid.UUID `db:"id"              goqu:"skipinsert"`
	Domain         string    `db:"domain"`
	ScanMode       string    `db:"scan_mode"`
	SubdomainCount int       `db:"subdomain_count"`
	CreatedAt      time.Time `db:"created_at"      goqu:"skipinsert"`
}

func (p *PgRun) ToDomain() *domain.DiscoveryRun {
	return &domain.DiscoveryRun{
		ID:             domain.RunID(p.ID),
		Domain:         p.Domain,
		Mode:           domain.ScanMode(p.ScanMode),
		SubdomainCount: p.SubdomainCount,
		CreatedAt:      p.CreatedAt,
	}
}

func (p *PgRun) FromDomain(run domain.DiscoveryRun) {
	*p = PgRun{
		ID:             uuid.UUID(run.ID),
		Domain:         run.Domain,
		ScanMode:       string(run.Mode),
		SubdomainCount: run.SubdomainCount,
		CreatedAt:      run.CreatedAt,
	}
}

// PgSubdomain is the row representation of an inventory entry.
type PgSubdomain struct {
	Domain      string    `db:"domain"`
	Name        string    `db:"name"`
	FirstSeenAt time.Time `db:"first_seen_at"`
	LastSeenAt  time.Time `db:"last_seen_at"`
	LastRunID   uuid.UUID `db:"last_run_id"`
}

func (p *PgSubdomain) ToDomain() domain.Subdomain {
	return domain.Subdomain{
		Domain:      p.Domain,
		Name:        p.Name,
		FirstSeenAt: p.FirstSeenAt,
		LastSeenAt:  p.LastSeenAt,
		LastRunID:   domain.RunID(p.LastRunID),
	}
}

func pgSubdomainsToDomain(rows []PgSubdomain) []domain.Subdomain {
	out := make([]domain.Subdomain, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}

	return out
}
