package scanner

import (
	"domainscan/internal/partners"
	"domainscan/internal/stats"
	"domainscan/pkg/domain"
	"domainscan/pkg/serrors"
)

// ResultSet is the read-only outcome of one scan run.
type ResultSet struct {
	run   domain.ScanRun
	byURL map[string]int
}

// NewResultSet wraps a finished run, for example one loaded from storage. The
// summary is recomputed from the results.
func NewResultSet(run domain.ScanRun) *ResultSet {
	run.Summary = stats.Aggregate(run.Results)

	return newResultSet(run)
}

func newResultSet(run domain.ScanRun) *ResultSet {
	rs := &ResultSet{run: run, byURL: make(map[string]int, len(run.Results))}
	for i, r := range run.Results {
		rs.byURL[r.URL] = i
	}

	return rs
}

// Run returns the scan run with its results and summary.
func (rs *ResultSet) Run() domain.ScanRun { return rs.run }

// Summary returns the aggregated summary of the run.
func (rs *ResultSet) Summary() domain.ScanSummary { return rs.run.Summary }

// Results returns the partner results in scan order.
func (rs *ResultSet) Results() []domain.PartnerScanResult { return rs.run.Results }

// Len is the number of partner results.
func (rs *ResultSet) Len() int { return len(rs.run.Results) }

// Get returns the result for a partner URL. The URL is normalized before the
// lookup, so trailing slashes and host case do not matter.
func (rs *ResultSet) Get(URL string) (domain.PartnerScanResult, error) {
	normalized, err := partners.NormalizeURL(URL)
	if err != nil {
		return domain.PartnerScanResult{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid URL")
	}

	i, ok := rs.byURL[normalized]
	if !ok {
		return domain.PartnerScanResult{}, serrors.With(serrors.ErrNotFound, "no result for %s", normalized)
	}

	return rs.run.Results[i], nil
}

// NoDomainURLs lists, in scan order, the partners whose page yielded no domains,
// including the ones that could not be fetched.
func (rs *ResultSet) NoDomainURLs() []string {
	var out []string
	for _, r := range rs.run.Results {
		if !r.HasDomains() {
			out = append(out, r.URL)
		}
	}

	return out
}

// Failed returns the results whose page could not be fetched.
func (rs *ResultSet) Failed() []domain.PartnerScanResult {
	var out []domain.PartnerScanResult
	for _, r := range rs.run.Results {
		if r.Failed() {
			out = append(out, r)
		}
	}

	return out
}

// NeedingUpdate returns the results classified High or Medium, most urgent
// first, keeping scan order within a tier.
func (rs *ResultSet) NeedingUpdate() []domain.PartnerScanResult {
	groups := stats.ByPriority(rs.run.Results)

	return append(append([]domain.PartnerScanResult{}, groups[domain.PriorityHigh]...), groups[domain.PriorityMedium]...)
}
