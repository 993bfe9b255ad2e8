package storage

import (
	"context"
	"time"

	"domainscan/pkg/domain"
)

// HistoryEntry is one past result of a partner together with the run it
// belongs to.
type HistoryEntry struct {
	ScanID    domain.ScanID
	StartedAt time.Time
	Result    domain.PartnerScanResult
}

// RunStorage persists scan runs. Summaries are not stored; readers recompute
// them from the partner results.
//
//go:generate mockgen -package mockstorage -source=run.go -destination=mock/mockrunstorage.go *
type RunStorage interface {
	// StoreScanRun inserts the run and all of its partner results atomically.
	StoreScanRun(ctx context.Context, run domain.ScanRun) error
	// LatestRun returns the most recently started run, or nil when none exists.
	LatestRun(ctx context.Context) (*domain.ScanRun, error)
	// RunByID returns a run with its results, or nil when it does not exist.
	RunByID(ctx context.Context, ID domain.ScanID) (*domain.ScanRun, error)
	// LatestResult returns the newest result recorded for a partner URL, or nil.
	LatestResult(ctx context.Context, URL string) (*HistoryEntry, error)
	// PartnerHistory returns up to limit results for a partner URL, newest first.
	PartnerHistory(ctx context.Context, URL string, limit uint) ([]HistoryEntry, error)
}
