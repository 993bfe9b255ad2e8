// Package stats aggregates partner scan results and assigns refresh priorities.
package stats

import (
	"fmt"

	"domainscan/pkg/domain"
)

const (
	// HighThreshold is the lowest sold ratio classified as PriorityHigh.
	HighThreshold = 0.90
	// MediumThreshold is the lowest sold ratio classified as PriorityMedium.
	MediumThreshold = 0.75
)

// SellThroughRate is the fraction of a partner's domains that are sold. It is 0
// for a partner without domains.
func SellThroughRate(r domain.PartnerScanResult) float64 {
	return ratio(r.TotalSold(), r.TotalDomains())
}

// ClassifyPriority maps a partner's sold ratio to a tier. Partners without
// domains are never flagged and get PriorityNone.
func ClassifyPriority(r domain.PartnerScanResult) domain.PriorityTier {
	if r.TotalDomains() == 0 {
		return domain.PriorityNone
	}

	return TierForRatio(SellThroughRate(r))
}

// TierForRatio applies the thresholds to a sold ratio. Each tier includes its
// lower bound, so 0.90 is High and 0.75 is Medium.
func TierForRatio(ratio float64) domain.PriorityTier {
	switch {
	case ratio >= HighThreshold:
		return domain.PriorityHigh
	case ratio >= MediumThreshold:
		return domain.PriorityMedium
	default:
		return domain.PriorityOK
	}
}

// NeedsUpdate reports whether the partner's inventory should be refreshed.
func NeedsUpdate(r domain.PartnerScanResult) bool {
	p := ClassifyPriority(r)

	return p == domain.PriorityHigh || p == domain.PriorityMedium
}

// Reason returns a short human readable explanation of the partner's tier.
func Reason(r domain.PartnerScanResult) string {
	switch {
	case r.Failed():
		return "Page could not be fetched"
	case !r.HasDomains():
		return "No premium domains on this page"
	}

	switch ClassifyPriority(r) {
	case domain.PriorityHigh:
		if r.TotalSold() == r.TotalDomains() {
			return fmt.Sprintf("Completely sold out (%d/%d sold)", r.TotalSold(), r.TotalDomains())
		}

		return fmt.Sprintf("Almost sold out (%d/%d sold)", r.TotalSold(), r.TotalDomains())
	case domain.PriorityMedium:
		return fmt.Sprintf("Mostly sold (%d/%d sold)", r.TotalSold(), r.TotalDomains())
	default:
		return ""
	}
}

// Aggregate computes the summary over all partner results. Failed partners count
// toward TotalPartners and PartnersWithoutDomains but contribute no domains.
func Aggregate(results []domain.PartnerScanResult) domain.ScanSummary {
	s := domain.ScanSummary{TotalPartners: len(results)}
	for _, r := range results {
		if r.Failed() {
			s.FailedScans++
		} else {
			s.SuccessfulScans++
		}

		if r.HasDomains() {
			s.PartnersWithDomains++
		} else {
			s.PartnersWithoutDomains++
		}

		s.TotalDomains += r.TotalDomains()
		s.TotalSold += r.TotalSold()
		s.TotalSoldValue += r.SoldValue()
		s.Unclassified += r.Unclassified

		switch ClassifyPriority(r) {
		case domain.PriorityHigh:
			s.HighPriority++
			s.PartnersNeedingUpdate++
		case domain.PriorityMedium:
			s.PartnersNeedingUpdate++
		}
	}
	s.SellThroughRate = ratio(s.TotalSold, s.TotalDomains)

	return s
}

// ByPriority groups partner results by tier, keeping the input order inside
// each group.
func ByPriority(results []domain.PartnerScanResult) map[domain.PriorityTier][]domain.PartnerScanResult {
	out := make(map[domain.PriorityTier][]domain.PartnerScanResult)
	for _, r := range results {
		p := ClassifyPriority(r)
		out[p] = append(out[p], r)
	}

	return out
}

func ratio(part, total int) float64 {
	if total <= 0 {
		return 0
	}

	return float64(part) / float64(total)
}
