package worker

import (
	"context"
	"fmt"
	"time"

	"domainscan/internal/scanner"
	"domainscan/pkg/domain"
	"domainscan/pkg/logger"
	"domainscan/pkg/storage"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"
)

const storeTimeout = 30 * time.Second

// ScanJobArgs requests a full scan of the configured partner list.
type ScanJobArgs struct {
	// Trigger records who asked for the scan, e.g. "periodic" or "api".
	Trigger string `json:"trigger"`

	maxAttempts int
}

// Kind returns the River job kind used to register and dispatch the scan worker.
func (args ScanJobArgs) Kind() string { return "scan_partners" }

// InsertOpts makes scan jobs unique while one is queued or running, so
// repeated triggers never pile up scans behind each other.
func (args ScanJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}

// NewScanJobArgs builds job args carrying the configured attempt limit.
func NewScanJobArgs(trigger string, maxAttempts int) ScanJobArgs {
	return ScanJobArgs{Trigger: trigger, maxAttempts: maxAttempts}
}

// ScanWorker runs a scan for every ScanJobArgs job and stores the run.
//
// The partner list is scanned in the order given. A partner with an invalid
// URL is recorded as a failed result of the run. A fetch session that could
// not be opened fails the job so River retries it with its backoff.
type ScanWorker struct {
	river.WorkerDefaults[ScanJobArgs]

	scanner  *scanner.Scanner
	partners []domain.Partner
	storage  storage.RunStorage
	timeout  time.Duration
}

// NewScanWorker constructs a ScanWorker. A zero timeout leaves the River
// default in place.
func NewScanWorker(s *scanner.Scanner,
	partners []domain.Partner,
	st storage.RunStorage,
	timeout time.Duration) *ScanWorker {
	return &ScanWorker{
		scanner:  s,
		partners: partners,
		storage:  st,
		timeout:  timeout,
	}
}

// Timeout bounds a whole scan job.
func (w *ScanWorker) Timeout(*river.Job[ScanJobArgs]) time.Duration {
	return w.timeout
}

// Work runs the scan and stores its result, including partial results of a scan
// cut short by cancellation.
func (w *ScanWorker) Work(ctx context.Context, job *river.Job[ScanJobArgs]) error {
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID), zap.String("trigger", job.Args.Trigger))

	rs, err := w.scanner.Scan(ctx, w.partners)
	if err != nil {
		logger.Error(ctx, "scan failed", zap.Error(err))

		return fmt.Errorf("could not scan partners: %w", err)
	}

	run := rs.Run()

	// the job context may already be cancelled; partial runs are still stored
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := w.storage.StoreScanRun(storeCtx, run); err != nil {
		logger.Error(ctx, "could not store scan run", zap.Error(err))

		return fmt.Errorf("could not store scan run: %w", err)
	}

	logger.Info(ctx, "scan run stored",
		zap.Stringer("scanID", run.ID),
		zap.Bool("cancelled", run.Cancelled),
		zap.Int("partners", run.Summary.TotalPartners),
		zap.Int("needingUpdate", run.Summary.PartnersNeedingUpdate))

	return nil
}
