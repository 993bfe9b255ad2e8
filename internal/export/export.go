// Package export writes scan runs to files people read: a JSON report and a
// plain list of partner pages without premium domains.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"domainscan/internal/stats"
	"domainscan/pkg/domain"

	"github.com/go-faster/jx"
)

const (
	reportPrefix   = "domain_scan_results_"
	noDomainPrefix = "no_domain_urls_"
	fileTimeLayout = "20060102_150405"
)

// Files are the paths written by WriteFiles.
type Files struct {
	Report   string
	NoDomain string
}

// WriteFiles writes the report and the no-domain list of run into dir, naming
// both after the run start time.
func WriteFiles(dir string, run domain.ScanRun) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("could not create output dir: %w", err)
	}

	stamp := run.StartedAt.UTC().Format(fileTimeLayout)
	files := Files{
		Report:   filepath.Join(dir, reportPrefix+stamp+".json"),
		NoDomain: filepath.Join(dir, noDomainPrefix+stamp+".txt"),
	}

	if err := writeFile(files.Report, func(w io.Writer) error { return WriteReport(w, run) }); err != nil {
		return Files{}, err
	}
	if err := writeFile(files.NoDomain, func(w io.Writer) error { return WriteNoDomainList(w, run) }); err != nil {
		return Files{}, err
	}

	return files, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		_ = f.Close()

		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()

		return fmt.Errorf("could not flush %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", path, err)
	}

	return nil
}

// WriteReport writes run as an indented JSON document with the summary followed
// by one entry per partner.
func WriteReport(w io.Writer, run domain.ScanRun) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.SetIdent(2)

	EncodeRun(e, run)

	if _, err := w.Write(append(e.Bytes(), '\n')); err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}

	return nil
}

// EncodeRun writes the report document of run to e.
func EncodeRun(e *jx.Encoder, run domain.ScanRun) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("scan_id", func(e *jx.Encoder) { e.Str(run.ID.String()) })
		e.Field("scan_timestamp", func(e *jx.Encoder) { e.Str(run.StartedAt.UTC().Format(time.RFC3339)) })
		e.Field("finished_at", func(e *jx.Encoder) { e.Str(run.FinishedAt.UTC().Format(time.RFC3339)) })
		e.Field("cancelled", func(e *jx.Encoder) { e.Bool(run.Cancelled) })
		e.Field("summary", func(e *jx.Encoder) { encodeSummary(e, run.Summary) })
		e.Field("results", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, r := range run.Results {
					EncodeResult(e, r)
				}
			})
		})
	})
}

func encodeSummary(e *jx.Encoder, s domain.ScanSummary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("total_partners_scanned", func(e *jx.Encoder) { e.Int(s.TotalPartners) })
		e.Field("successful_scans", func(e *jx.Encoder) { e.Int(s.SuccessfulScans) })
		e.Field("failed_scans", func(e *jx.Encoder) { e.Int(s.FailedScans) })
		e.Field("pages_with_premium_domains", func(e *jx.Encoder) { e.Int(s.PartnersWithDomains) })
		e.Field("pages_without_premium_domains", func(e *jx.Encoder) { e.Int(s.PartnersWithoutDomains) })
		e.Field("partners_needing_update", func(e *jx.Encoder) { e.Int(s.PartnersNeedingUpdate) })
		e.Field("high_priority_updates", func(e *jx.Encoder) { e.Int(s.HighPriority) })
		e.Field("total_domains", func(e *jx.Encoder) { e.Int(s.TotalDomains) })
		e.Field("total_sold", func(e *jx.Encoder) { e.Int(s.TotalSold) })
		e.Field("total_sold_value", func(e *jx.Encoder) { e.Float64(s.TotalSoldValue) })
		e.Field("unclassified_labels", func(e *jx.Encoder) { e.Int(s.Unclassified) })
		e.Field("overall_sell_through_rate", func(e *jx.Encoder) { e.Float64(Percent(s.SellThroughRate)) })
	})
}

// EncodeResult writes one partner entry of the report to e.
func EncodeResult(e *jx.Encoder, r domain.PartnerScanResult) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("partner", func(e *jx.Encoder) { e.Str(r.Partner) })
		e.Field("url", func(e *jx.Encoder) { e.Str(r.URL) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Str(r.ScannedAt.UTC().Format(time.RFC3339)) })
		e.Field("has_premium_domains", func(e *jx.Encoder) { e.Bool(r.HasDomains()) })
		if r.Failed() {
			e.Field("error", func(e *jx.Encoder) { e.Str(r.FetchError) })

			return
		}

		e.Field("total_domains", func(e *jx.Encoder) { e.Int(r.TotalDomains()) })
		e.Field("sold_domains", func(e *jx.Encoder) { e.Int(r.TotalSold()) })
		e.Field("available_domains", func(e *jx.Encoder) { e.Int(r.TotalAvailable()) })
		e.Field("coming_soon_domains", func(e *jx.Encoder) { e.Int(r.TotalComingSoon()) })
		e.Field("unclassified_labels", func(e *jx.Encoder) { e.Int(r.Unclassified) })
		e.Field("skipped_cards", func(e *jx.Encoder) { e.Int(r.Skipped) })
		e.Field("percentage_sold", func(e *jx.Encoder) { e.Float64(Percent(stats.SellThroughRate(r))) })
		e.Field("total_sold_value", func(e *jx.Encoder) { e.Float64(r.SoldValue()) })
		e.Field("domains", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, d := range r.Domains {
					encodeDomain(e, d)
				}
			})
		})
		e.Field("needs_update", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("needs_update", func(e *jx.Encoder) { e.Bool(stats.NeedsUpdate(r)) })
				e.Field("priority", func(e *jx.Encoder) { e.Str(string(stats.ClassifyPriority(r))) })
				e.Field("reason", func(e *jx.Encoder) { e.Str(stats.Reason(r)) })
			})
		})
	})
}

func encodeDomain(e *jx.Encoder, d domain.DomainEntry) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(d.Name) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(d.Status)) })
		e.Field("price", func(e *jx.Encoder) {
			if d.Price == nil {
				e.Null()

				return
			}
			e.Float64(*d.Price)
		})
		if d.Status == domain.StatusUnknown {
			e.Field("raw_status", func(e *jx.Encoder) { e.Str(d.RawStatus) })
		}
	})
}

// WriteNoDomainList writes the pages that loaded but showed no premium domains,
// one URL per line after a commented header. Pages that failed to load are
// left out since their inventory is unknown.
func WriteNoDomainList(w io.Writer, run domain.ScanRun) error {
	bw := bufio.NewWriter(w)
	_, _ = fmt.Fprintln(bw, "# Pages without premium domains - review and remove from scan list")
	_, _ = fmt.Fprintf(bw, "# Scan %s at %s\n\n", run.ID, run.StartedAt.UTC().Format(time.RFC3339))
	for _, r := range run.Results {
		if r.Failed() || r.HasDomains() {
			continue
		}
		_, _ = fmt.Fprintln(bw, r.URL)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not write no-domain list: %w", err)
	}

	return nil
}

// Percent converts a ratio to a percentage rounded to two decimals.
func Percent(ratio float64) float64 {
	return math.Round(ratio*10000) / 100
}
