package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"domainscan/pkg/domain"
	"domainscan/pkg/storage"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	runsTable    = "scan_runs"
	resultsTable = "partner_results"
)

// resultColumns are the partner_results columns read back into PgPartnerResult.
var resultColumns = []string{ //nolint: gochecknoglobals
	"scan_id", "position", "url", "partner", "domains", "fetch_error",
	"unclassified", "skipped", "total_domains", "total_sold", "scanned_at",
}

// StoreScanRun inserts the run row followed by its partner results. Outside a
// transaction a new one is opened so that a run is never stored partially.
func (p *PgSQL) StoreScanRun(ctx context.Context, run domain.ScanRun) error {
	if _, inTx := p.DB.(*sql.Tx); !inTx {
		return p.WithTx(ctx, func(tx storage.AllStorage) error {
			return tx.StoreScanRun(ctx, run)
		})
	}

	var row PgScanRun
	row.FromDomain(run)
	if _, err := p.Builder.Insert(runsTable).Rows(row).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("could not store scan run into pg: %w", err)
	}

	if len(run.Results) == 0 {
		return nil
	}

	rows := make([]PgPartnerResult, len(run.Results))
	for i, r := range run.Results {
		if err := rows[i].FromDomain(run.ID, i, r); err != nil {
			return err
		}
	}
	if _, err := p.Builder.Insert(resultsTable).Rows(rows).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("could not store partner results into pg: %w", err)
	}

	return nil
}

// LatestRun returns the run with the newest started_at together with its results.
func (p *PgSQL) LatestRun(ctx context.Context) (*domain.ScanRun, error) {
	var row PgScanRun
	found, err := p.Builder.From(runsTable).
		Order(goqu.I("started_at").Desc(), goqu.I("created_at").Desc()).
		Limit(1).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch latest scan run: %w", err)
	}
	if !found {
		return nil, nil
	}

	return p.withResults(ctx, &row)
}

// RunByID returns a run by its ID together with its results.
func (p *PgSQL) RunByID(ctx context.Context, id domain.ScanID) (*domain.ScanRun, error) {
	var row PgScanRun
	found, err := p.Builder.From(runsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch scan run by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return p.withResults(ctx, &row)
}

func (p *PgSQL) withResults(ctx context.Context, run *PgScanRun) (*domain.ScanRun, error) {
	var rows []PgPartnerResult
	if err := p.Builder.From(resultsTable).
		Where(goqu.I("scan_id").Eq(run.ID)).
		Order(goqu.I("position").Asc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch partner results: %w", err)
	}

	results, err := pgResultsToDomain(rows)
	if err != nil {
		return nil, err
	}

	return run.ToDomain(results), nil
}

// LatestResult returns the newest result recorded for URL across all runs.
func (p *PgSQL) LatestResult(ctx context.Context, URL string) (*storage.HistoryEntry, error) {
	entries, err := p.PartnerHistory(ctx, URL, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	return &entries[0], nil
}

// PartnerHistory returns the results recorded for URL ordered by scan time,
// newest first.
func (p *PgSQL) PartnerHistory(ctx context.Context, URL string, limit uint) ([]storage.HistoryEntry, error) {
	cols := make([]interface{}, 0, len(resultColumns)+1)
	for _, c := range resultColumns {
		cols = append(cols, goqu.I("r."+c))
	}
	cols = append(cols, goqu.I("s.started_at").As("run_started_at"))

	ds := p.Builder.From(goqu.T(resultsTable).As("r")).
		Join(goqu.T(runsTable).As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("r.scan_id")))).
		Select(cols...).
		Where(goqu.I("r.url").Eq(URL)).
		Order(goqu.I("r.scanned_at").Desc(), goqu.I("s.started_at").Desc())
	if limit > 0 {
		ds = ds.Limit(limit)
	}

	var rows []pgHistoryRow
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch partner history from pg: %w", err)
	}

	out := make([]storage.HistoryEntry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *e)
	}

	return out, nil
}
