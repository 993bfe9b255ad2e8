// Package worker runs partner scans in the background on a River queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"domainscan/internal/config"
	"domainscan/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// Options configure the background queue.
type Options struct {
	// Interval between periodic scans. Zero disables periodic scans.
	Interval time.Duration
	// MaxAttempts is the number of attempts of a scan job.
	MaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	opts := Options{
		Interval:    cfg.Worker.Interval,
		MaxAttempts: cfg.Worker.MaxAttempts,
	}
	if cfg.Worker.DisablePeriodic {
		opts.Interval = 0
	}

	return opts
}

// PeriodicJobs returns the periodic scan schedule, or nothing when the interval
// is zero. The first scan is enqueued as soon as the client starts.
func PeriodicJobs(opts Options) []*river.PeriodicJob {
	if opts.Interval <= 0 {
		return nil
	}

	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(opts.Interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return NewScanJobArgs("periodic", opts.MaxAttempts), nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}
}

// Start registers the scan worker and starts a River client. The default queue
// runs a single worker: scans own a fetch session each and are never run side
// by side.
func Start(ctx context.Context, dbPool *pgxpool.Pool, scanWorker *ScanWorker, opts Options) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely(workers, scanWorker); err != nil {
		return nil, fmt.Errorf("could not register scan worker: %w", err)
	}

	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 1},
		},
		Workers:      workers,
		PeriodicJobs: PeriodicJobs(opts),
		Logger:       slog.New(zapslog.NewHandler(logger.Get(ctx).Core())),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	logger.Info(ctx, "background worker started", zap.Duration("interval", opts.Interval))

	return riverClient, nil
}
