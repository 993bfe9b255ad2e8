package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"domainscan/pkg/domain"
	"domainscan/pkg/storage"

	"github.com/google/uuid"
)

type PgScanRun struct {
	ID         uuid.UUID `db:"id"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Cancelled  bool      `db:"cancelled"`
	CreatedAt  time.Time `db:"created_at" goqu:"skipinsert"`
}

type PgPartnerResult struct {
	ScanID   uuid.UUID `db:"scan_id"`
	Position int       `db:"position"`

	URL        string          `db:"url"`
	Partner    string          `db:"partner"`
	Domains    json.RawMessage `db:"domains"`
	FetchError sql.NullString  `db:"fetch_error"`

	Unclassified int `db:"unclassified"`
	Skipped      int `db:"skipped"`
	TotalDomains int `db:"total_domains"`
	TotalSold    int `db:"total_sold"`

	ScannedAt time.Time `db:"scanned_at"`
}

// pgHistoryRow is a partner result joined with the start time of its run.
type pgHistoryRow struct {
	PgPartnerResult

	RunStartedAt time.Time `db:"run_started_at"`
}

func (p *PgScanRun) FromDomain(run domain.ScanRun) {
	*p = PgScanRun{
		ID:         uuid.UUID(run.ID),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Cancelled:  run.Cancelled,
	}
}

func (p *PgScanRun) ToDomain(results []domain.PartnerScanResult) *domain.ScanRun {
	return &domain.ScanRun{
		ID:         domain.ScanID(p.ID),
		StartedAt:  p.StartedAt,
		FinishedAt: p.FinishedAt,
		Cancelled:  p.Cancelled,
		Results:    results,
	}
}

func (p *PgPartnerResult) FromDomain(scanID domain.ScanID, position int, r domain.PartnerScanResult) error {
	domains := r.Domains
	if domains == nil {
		domains = []domain.DomainEntry{}
	}
	b, err := json.Marshal(domains)
	if err != nil {
		return fmt.Errorf("could not marshal domains: %w", err)
	}

	*p = PgPartnerResult{
		ScanID:   uuid.UUID(scanID),
		Position: position,
		URL:      r.URL,
		Partner:  r.Partner,
		Domains:  b,
		FetchError: sql.NullString{
			String: r.FetchError,
			Valid:  r.FetchError != "",
		},
		Unclassified: r.Unclassified,
		Skipped:      r.Skipped,
		TotalDomains: r.TotalDomains(),
		TotalSold:    r.TotalSold(),
		ScannedAt:    r.ScannedAt,
	}

	return nil
}

func (p *PgPartnerResult) ToDomain() (*domain.PartnerScanResult, error) {
	domains := []domain.DomainEntry{}
	if len(p.Domains) > 0 {
		if err := json.Unmarshal(p.Domains, &domains); err != nil {
			return nil, fmt.Errorf("could not unmarshal domains: %w", err)
		}
	}

	return &domain.PartnerScanResult{
		URL:          p.URL,
		Partner:      p.Partner,
		Domains:      domains,
		FetchError:   p.FetchError.String,
		Unclassified: p.Unclassified,
		Skipped:      p.Skipped,
		ScannedAt:    p.ScannedAt,
	}, nil
}

func (p *pgHistoryRow) ToDomain() (*storage.HistoryEntry, error) {
	r, err := p.PgPartnerResult.ToDomain()
	if err != nil {
		return nil, err
	}

	return &storage.HistoryEntry{
		ScanID:    domain.ScanID(p.ScanID),
		StartedAt: p.RunStartedAt,
		Result:    *r,
	}, nil
}

func pgResultsToDomain(rows []PgPartnerResult) ([]domain.PartnerScanResult, error) {
	out := make([]domain.PartnerScanResult, 0, len(rows))
	for _, row := range rows {
		r, err := row.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *r)
	}

	return out, nil
}
