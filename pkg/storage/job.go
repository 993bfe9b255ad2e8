package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage enqueues background jobs. On a TxStorage the job is part of the
// transaction and becomes visible only on commit.
//
//go:generate mockgen -package mockstorage -source=job.go -destination=mock/mockjobstorage.go *
type JobStorage interface {
	// AddJob reports false when River skipped the job because a unique
	// duplicate is already queued.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
