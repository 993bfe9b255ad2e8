// Package scanner runs a scan over a set of partner pages: it fetches every
// page through a single session, extracts and classifies domain cards and
// builds one result per partner.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"domainscan/internal/classifier"
	"domainscan/internal/config"
	"domainscan/internal/extractor"
	"domainscan/internal/partners"
	"domainscan/internal/stats"
	"domainscan/pkg/domain"
	"domainscan/pkg/fetcher"
	"domainscan/pkg/logger"
	"domainscan/pkg/metrics"
	"domainscan/pkg/serrors"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Options configure a scan. These settings are typically derived from
// application configuration.
type Options struct {
	// TimeoutPerPage bounds how long a single fetch may take before the partner
	// is recorded as failed.
	TimeoutPerPage time.Duration
	// DelayBetweenRequests is applied between successive partner fetches, never
	// before the first one or within a single partner.
	DelayBetweenRequests time.Duration
	// IncludeNotLaunched also scans partners whose page is not public yet.
	IncludeNotLaunched bool
	// MaxRetries is how many times a failed fetch is retried. Timeouts are not
	// retried.
	MaxRetries int
	// RetryInitialInterval is the first backoff interval between retries.
	RetryInitialInterval time.Duration
	// OnProgress, if set, is called after each partner completes, in input
	// order, from the goroutine running the scan.
	OnProgress func(Progress)
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		TimeoutPerPage:       5 * time.Second,
		DelayBetweenRequests: 500 * time.Millisecond,
		RetryInitialInterval: 500 * time.Millisecond,
	}
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		TimeoutPerPage:       cfg.Scan.TimeoutPerPage,
		DelayBetweenRequests: cfg.Scan.DelayBetweenRequests,
		IncludeNotLaunched:   cfg.Scan.IncludeNotLaunched,
		MaxRetries:           cfg.Scan.MaxRetries,
		RetryInitialInterval: cfg.Scan.RetryInitialInterval,
	}
}

// Progress is emitted once per partner after its result is final.
type Progress struct {
	// Index is the 1-based position of the partner in the scan.
	Index int
	// Total is the number of partners in the scan.
	Total  int
	URL    string
	Result domain.PartnerScanResult
}

// Scanner runs scans. A Scanner may be reused for many scans but a single scan
// is strictly sequential; concurrent scans each open their own session.
type Scanner struct {
	fetcher    fetcher.Fetcher
	classifier *classifier.Classifier
	metrics    *metrics.Scan
	options    Options
	now        func() time.Time
}

// New creates a Scanner. A nil metrics value disables telemetry.
func New(f fetcher.Fetcher, c *classifier.Classifier, m *metrics.Scan, options Options) *Scanner {
	if m == nil {
		m = metrics.Noop()
	}
	if options.TimeoutPerPage <= 0 {
		options.TimeoutPerPage = DefaultOptions().TimeoutPerPage
	}
	if options.RetryInitialInterval <= 0 {
		options.RetryInitialInterval = DefaultOptions().RetryInitialInterval
	}

	return &Scanner{
		fetcher:    f,
		classifier: c,
		metrics:    m,
		options:    options,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Scan visits the partners in the order given and returns one result per
// partner. Not launched partners are skipped unless Options.IncludeNotLaunched
// is set, and a URL seen twice is scanned once. Partner failures, including a
// URL that cannot be parsed, are recorded on their results and never abort
// the scan. The only error returned is a failure to open the fetch session
// (serrors.ErrUnavailable).
//
// When ctx is cancelled the scan stops before the next partner begins and the
// results produced so far are returned with Cancelled set. A fetch interrupted
// by the cancellation is not recorded.
func (s *Scanner) Scan(ctx context.Context, list []domain.Partner) (*ResultSet, error) {
	selected := s.targets(list)

	run := domain.ScanRun{
		ID:        domain.ScanID(uuid.New()),
		StartedAt: s.now(),
		Results:   make([]domain.PartnerScanResult, 0, len(selected)),
	}
	ctx = logger.WithFields(ctx, zap.Stringer("scanID", run.ID), zap.Int("partners", len(selected)))
	logger.Info(ctx, "starting scan", zap.String("vocabulary", s.classifier.Version()))

	session, err := s.fetcher.Open(ctx)
	if err != nil {
		if errors.Is(err, serrors.ErrUnavailable) {
			return nil, fmt.Errorf("could not open fetch session: %w", err)
		}

		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "could not open fetch session")
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn(ctx, "could not close fetch session", zap.Error(err))
		}
	}()

	for i, t := range selected {
		if (i > 0 && !s.wait(ctx)) || ctx.Err() != nil {
			run.Cancelled = true

			break
		}

		var result domain.PartnerScanResult
		if t.err != nil {
			result = s.rejectPartner(ctx, t)
		} else {
			var ok bool
			if result, ok = s.scanPartner(ctx, session, t.partner); !ok {
				run.Cancelled = true

				break
			}
		}
		run.Results = append(run.Results, result)

		if s.options.OnProgress != nil {
			s.options.OnProgress(Progress{Index: i + 1, Total: len(selected), URL: t.partner.URL, Result: result})
		}
	}

	run.FinishedAt = s.now()
	run.Summary = stats.Aggregate(run.Results)
	s.metrics.RunFinished(ctx, run.Cancelled)

	logger.Info(ctx, "scan finished",
		zap.Bool("cancelled", run.Cancelled),
		zap.Int("scanned", len(run.Results)),
		zap.Int("failed", run.Summary.FailedScans),
		zap.Int("domains", run.Summary.TotalDomains),
		zap.Int("unclassified", run.Summary.Unclassified),
		zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)))

	return newResultSet(run), nil
}

type target struct {
	partner domain.Partner
	err     error
}

// targets filters and normalizes list keeping its order. The first occurrence
// of a URL wins.
func (s *Scanner) targets(list []domain.Partner) []target {
	seen := make(map[string]struct{}, len(list))
	out := make([]target, 0, len(list))
	for _, p := range list {
		if !p.Launched && !s.options.IncludeNotLaunched {
			continue
		}

		var err error
		normalized, nerr := partners.NormalizeURL(p.URL)
		if nerr != nil {
			err = serrors.Wrap(serrors.ErrBadRequest, nerr, "invalid partner url")
		} else {
			p.URL = normalized
		}
		if _, ok := seen[p.URL]; ok {
			continue
		}
		seen[p.URL] = struct{}{}

		out = append(out, target{partner: p, err: err})
	}

	return out
}

// rejectPartner records a partner whose URL could not be used.
func (s *Scanner) rejectPartner(ctx context.Context, t target) domain.PartnerScanResult {
	logger.Warn(ctx, "skipping partner with invalid url", zap.String("URL", t.partner.URL), zap.Error(t.err))
	s.metrics.PageFetched(ctx, metrics.OutcomeFailed, 0)

	return domain.PartnerScanResult{
		URL:        t.partner.URL,
		Partner:    t.partner.DisplayName(),
		Domains:    []domain.DomainEntry{},
		FetchError: describe(t.err),
		ScannedAt:  s.now(),
	}
}

// wait sleeps for the configured delay. It returns false if ctx is cancelled
// first.
func (s *Scanner) wait(ctx context.Context) bool {
	if s.options.DelayBetweenRequests <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(s.options.DelayBetweenRequests)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// scanPartner fetches and parses one partner page. It returns false when the
// fetch was interrupted by cancellation of ctx.
func (s *Scanner) scanPartner(ctx context.Context,
	session fetcher.Session,
	p domain.Partner) (domain.PartnerScanResult, bool) {
	ctx, span := s.metrics.StartPage(ctx, p.URL)
	defer span.End()
	ctx = logger.WithFields(ctx, zap.String("URL", p.URL))

	start := time.Now()
	page, err := s.fetch(ctx, session, p.URL)
	took := time.Since(start)

	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "cancelled")
		logger.Debug(ctx, "fetch interrupted by cancellation")

		return domain.PartnerScanResult{}, false
	}

	result := domain.PartnerScanResult{
		URL:       p.URL,
		Partner:   p.DisplayName(),
		Domains:   []domain.DomainEntry{},
		ScannedAt: s.now(),
	}

	if err != nil {
		result.FetchError = describe(err)
		outcome := metrics.OutcomeFailed
		if errors.Is(err, serrors.ErrTimeout) {
			outcome = metrics.OutcomeTimeout
		}
		s.metrics.PageFetched(ctx, outcome, took)
		span.RecordError(err)
		span.SetStatus(codes.Error, result.FetchError)
		logger.Warn(ctx, "could not fetch partner page", zap.Error(err))

		return result, true
	}
	s.metrics.PageFetched(ctx, metrics.OutcomeOK, took)

	extraction := extractor.Extract(page)
	result.Skipped = extraction.Skipped
	byStatus := make(map[string]int, 4)
	for _, raw := range extraction.Entries {
		status := s.classifier.Classify(raw.StatusText)
		if status == domain.StatusUnknown {
			result.Unclassified++
			logger.Debug(ctx, "unclassified status label",
				zap.String("domain", raw.Name),
				zap.String("label", raw.StatusText))
		}
		byStatus[string(status)]++
		result.Domains = append(result.Domains, domain.NewDomainEntry(raw.Name, status, raw.StatusText, raw.Price))
	}
	s.metrics.DomainsExtracted(ctx, byStatus, extraction.Skipped, result.Unclassified)

	logger.Debug(ctx, "partner scanned",
		zap.Int("domains", result.TotalDomains()),
		zap.Int("sold", result.TotalSold()),
		zap.Int("skipped", result.Skipped),
		zap.Duration("took", took))

	return result, true
}

// maxRetryAfter caps the delay a rate limited server may impose on a retry.
const maxRetryAfter = time.Minute

// hintBackOff waits at least as long as the last Retry-After hint.
type hintBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (b *hintBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	hint := min(b.hint, maxRetryAfter)
	b.hint = 0
	if next == backoff.Stop {
		return next
	}

	return max(next, hint)
}

// fetch loads a page bounded by TimeoutPerPage per attempt, retrying
// non-timeout failures with exponential backoff. A rate limited attempt waits
// at least as long as the server asked.
func (s *Scanner) fetch(ctx context.Context, session fetcher.Session, URL string) (string, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.options.RetryInitialInterval
	exp.MaxElapsedTime = 0
	hb := &hintBackOff{BackOff: exp}

	attempt := func() (string, error) {
		pageCtx, cancel := context.WithTimeout(ctx, s.options.TimeoutPerPage)
		defer cancel()

		page, err := session.Fetch(pageCtx, URL)
		if err == nil {
			return page, nil
		}
		var ra *fetcher.RetryAfterError
		if errors.As(err, &ra) {
			hb.hint = ra.Wait
		}
		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, serrors.ErrTimeout) {
			err = serrors.Wrap(serrors.ErrTimeout, err, "page load exceeded %s", s.options.TimeoutPerPage)
		}
		if errors.Is(err, serrors.ErrTimeout) {
			return "", backoff.Permanent(err)
		}

		return "", err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(hb, uint64(max(s.options.MaxRetries, 0))), ctx)

	page, err := backoff.RetryNotifyWithData(attempt, b, func(err error, next time.Duration) {
		logger.Debug(ctx, "retrying partner page", zap.Error(err), zap.Duration("in", next))
	})
	if err != nil {
		return "", err //nolint: wrapcheck
	}

	return page, nil
}

// describe renders an error as "<KIND>: <message>" for FetchError.
func describe(err error) string {
	kind := serrors.KindOf(err)
	if kind == nil {
		kind = serrors.ErrFetchFailed
	}

	return kind.Error() + ": " + err.Error()
}
