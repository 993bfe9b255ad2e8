// Package fetcher defines the page fetching capability used by scans. A scan
// acquires one Session, fetches every partner page through it and releases it
// when done.
package fetcher

import (
	"context"
	"time"
)

// Fetcher acquires fetch sessions.
//
//go:generate mockgen -package mockfetcher -source=interface.go -destination=mock/mockfetcher.go *
type Fetcher interface {
	// Open acquires a session. Failing to open a session is fatal for a scan
	// and is reported as serrors.ErrUnavailable.
	Open(ctx context.Context) (Session, error)
}

// Session loads partner pages. Implementations return the page content after
// it has been rendered or settled, and report failures using the
// serrors.ErrTimeout, serrors.ErrRateLimited and serrors.ErrFetchFailed kinds.
type Session interface {
	// Fetch loads URL and returns its content. The deadline of ctx bounds the
	// whole fetch.
	Fetch(ctx context.Context, URL string) (string, error)
	// Close releases the session. It is safe to call more than once.
	Close() error
}

// RetryAfterError carries the delay a rate limited server asked for. Sessions
// wrap it in a serrors.ErrRateLimited error so retries can honor it.
type RetryAfterError struct {
	Wait time.Duration
}

func (e *RetryAfterError) Error() string {
	return "retry after " + e.Wait.String()
}
