package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanID uniquely identifies a scan run.
// It wraps uuid.UUID to provide type safety at the domain layer.
type ScanID uuid.UUID

// String returns the canonical textual form of the ID.
func (id ScanID) String() string { return uuid.UUID(id).String() }

// MarshalText encodes the ID as its canonical string.
func (id ScanID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText parses a canonical UUID string.
func (id *ScanID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// Status is the normalized sale state of a single premium domain.
type Status string

const (
	// StatusSold indicates the domain has been purchased.
	StatusSold Status = "sold"
	// StatusAvailable indicates the domain can be bought right now.
	StatusAvailable Status = "available"
	// StatusComingSoon indicates the domain is listed but not yet on sale.
	StatusComingSoon Status = "coming_soon"
	// StatusUnknown is assigned when the source label matched no known vocabulary.
	StatusUnknown Status = "unknown"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSold, StatusAvailable, StatusComingSoon, StatusUnknown:
		return true
	default:
		return false
	}
}

// DomainEntry is one premium domain found on a partner page.
type DomainEntry struct {
	// Name is the full domain name, e.g. "alice.moon".
	Name string `json:"name"`
	// Status is the normalized sale state.
	Status Status `json:"status"`
	// Price is only set for sold or available domains.
	Price *float64 `json:"price,omitempty"`
	// RawStatus keeps the label as it appeared on the page.
	RawStatus string `json:"rawStatus,omitempty"`
}

// NewDomainEntry builds an entry. The price is kept only for sold or available
// domains and only when it is non-negative.
func NewDomainEntry(name string, status Status, rawStatus string, price *float64) DomainEntry {
	entry := DomainEntry{Name: name, Status: status, RawStatus: rawStatus}
	if price != nil && *price >= 0 && (status == StatusSold || status == StatusAvailable) {
		p := *price
		entry.Price = &p
	}

	return entry
}

// PartnerScanResult is the outcome of scanning a single partner page.
//
// If FetchError is set, Domains is always empty. The opposite does not hold: a
// page may legitimately have no domain cards.
type PartnerScanResult struct {
	// URL is the partner page address, unique within a scan.
	URL string `json:"url"`
	// Partner is the short partner name derived from the URL.
	Partner string `json:"partner"`
	// Domains are the entries in page order.
	Domains []DomainEntry `json:"domains"`
	// FetchError describes why the page could not be fetched.
	FetchError string `json:"fetchError,omitempty"`
	// Unclassified counts entries whose status label matched no vocabulary rule.
	Unclassified int `json:"unclassified"`
	// Skipped counts malformed domain cards that were dropped.
	Skipped int `json:"skipped"`
	// ScannedAt is when the fetch attempt resolved.
	ScannedAt time.Time `json:"scannedAt"`
}

// Failed reports whether the page could not be fetched.
func (r PartnerScanResult) Failed() bool { return r.FetchError != "" }

// HasDomains reports whether at least one domain card was extracted.
func (r PartnerScanResult) HasDomains() bool { return len(r.Domains) > 0 }

// TotalDomains is the number of extracted entries.
func (r PartnerScanResult) TotalDomains() int { return len(r.Domains) }

// TotalSold is the number of entries with StatusSold.
func (r PartnerScanResult) TotalSold() int { return r.count(StatusSold) }

// TotalAvailable is the number of entries with StatusAvailable.
func (r PartnerScanResult) TotalAvailable() int { return r.count(StatusAvailable) }

// TotalComingSoon is the number of entries with StatusComingSoon.
func (r PartnerScanResult) TotalComingSoon() int { return r.count(StatusComingSoon) }

// SoldValue sums the prices of sold entries that carry one.
func (r PartnerScanResult) SoldValue() float64 {
	var total float64
	for _, d := range r.Domains {
		if d.Status == StatusSold && d.Price != nil {
			total += *d.Price
		}
	}

	return total
}

func (r PartnerScanResult) count(status Status) int {
	n := 0
	for _, d := range r.Domains {
		if d.Status == status {
			n++
		}
	}

	return n
}

// ScanSummary aggregates all partner results of one scan. It is always derived
// from the results and never treated as a source of truth on its own.
type ScanSummary struct {
	TotalPartners          int     `json:"totalPartners"`
	SuccessfulScans        int     `json:"successfulScans"`
	FailedScans            int     `json:"failedScans"`
	PartnersWithDomains    int     `json:"partnersWithDomains"`
	PartnersWithoutDomains int     `json:"partnersWithoutDomains"`
	PartnersNeedingUpdate  int     `json:"partnersNeedingUpdate"`
	HighPriority           int     `json:"highPriority"`
	TotalDomains           int     `json:"totalDomains"`
	TotalSold              int     `json:"totalSold"`
	TotalSoldValue         float64 `json:"totalSoldValue"`
	Unclassified           int     `json:"unclassified"`
	// SellThroughRate is TotalSold / TotalDomains, or 0 when there are no domains.
	SellThroughRate float64 `json:"sellThroughRate"`
}

// PriorityTier describes how urgently a partner's inventory should be refreshed.
type PriorityTier string

const (
	// PriorityNone is used for partners without domains; they are never flagged.
	PriorityNone PriorityTier = "none"
	// PriorityOK means less than 75% of the inventory is sold.
	PriorityOK PriorityTier = "ok"
	// PriorityMedium means at least 75% but less than 90% is sold.
	PriorityMedium PriorityTier = "medium"
	// PriorityHigh means at least 90% is sold.
	PriorityHigh PriorityTier = "high"
)

// Rank orders tiers so that a higher rank is more urgent.
func (p PriorityTier) Rank() int {
	switch p {
	case PriorityOK:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// ScanRun groups the results of one full scan together with its summary.
type ScanRun struct {
	ID         ScanID              `json:"id"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
	Cancelled  bool                `json:"cancelled"`
	Results    []PartnerScanResult `json:"results"`
	Summary    ScanSummary         `json:"summary"`
}
