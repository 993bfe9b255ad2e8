package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"domainscan/internal/config"
	"domainscan/internal/export"
	"domainscan/internal/scanner"
	"domainscan/pkg/domain"
	"domainscan/pkg/logger"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func logProgress(ctx context.Context) func(scanner.Progress) {
	return func(p scanner.Progress) {
		fields := []zap.Field{
			zap.Int("index", p.Index),
			zap.Int("total", p.Total),
			zap.String("partner", p.Result.Partner),
		}

		switch {
		case p.Result.Failed():
			logger.Warn(ctx, "partner page failed", append(fields, zap.String("error", p.Result.FetchError))...)
		case !p.Result.HasDomains():
			logger.Info(ctx, "no premium domains found", fields...)
		default:
			logger.Info(ctx, "partner scanned", append(fields,
				zap.Int("domains", p.Result.TotalDomains()),
				zap.Int("sold", p.Result.TotalSold()))...)
		}
	}
}

func logSummary(ctx context.Context, run domain.ScanRun) {
	s := run.Summary
	logger.Info(ctx, "scan finished",
		zap.Stringer("scanID", run.ID),
		zap.Bool("cancelled", run.Cancelled),
		zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)),
		zap.Int("partners", s.TotalPartners),
		zap.Int("failed", s.FailedScans),
		zap.Int("withDomains", s.PartnersWithDomains),
		zap.Int("withoutDomains", s.PartnersWithoutDomains),
		zap.Int("domains", s.TotalDomains),
		zap.Int("sold", s.TotalSold),
		zap.Float64("sellThroughPercent", export.Percent(s.SellThroughRate)),
		zap.Int("needingUpdate", s.PartnersNeedingUpdate),
		zap.Int("highPriority", s.HighPriority),
		zap.Int("unclassifiedLabels", s.Unclassified))
}

// scanCommand constructs the 'scan' subcommand that scans every partner once,
// writes the report files and optionally stores the run. An interrupt stops the
// scan after the current partner and keeps the partial results.
func scanCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scans all partner pages once and writes the reports",
		Run: func(cmd *cobra.Command, args []string) {
			outputDir, _ := cmd.Flags().GetString("output")
			store, _ := cmd.Flags().GetBool("store")
			includeNotLaunched, _ := cmd.Flags().GetBool("include-not-launched")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			options := scanner.NewOptions(cfg)
			options.IncludeNotLaunched = options.IncludeNotLaunched || includeNotLaunched
			options.OnProgress = logProgress(ctx)

			s, list, err := newScanner(ctx, cfg, noop.NewMeterProvider(), options)
			if err != nil {
				logger.Fatal(ctx, "could not create scanner", zap.Error(err))
			}

			rs, err := s.Scan(ctx, list)
			if err != nil {
				logger.Fatal(ctx, "scan failed", zap.Error(err))
			}
			run := rs.Run()
			logSummary(ctx, run)

			// the scan context is done after an interrupt; writing results must not be
			ctx = context.WithoutCancel(ctx)

			files, err := export.WriteFiles(outputDir, run)
			if err != nil {
				logger.Fatal(ctx, "could not write reports", zap.Error(err))
			}
			logger.Info(ctx, "reports written", zap.String("report", files.Report), zap.String("noDomain", files.NoDomain))

			for _, r := range rs.NeedingUpdate() {
				logger.Info(ctx, "partner needs update", zap.String("partner", r.Partner), zap.String("url", r.URL))
			}

			if !store {
				return
			}

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			storeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := strg.StoreScanRun(storeCtx, run); err != nil {
				logger.Error(ctx, "could not store scan run", zap.Error(err))

				return
			}
			logger.Info(ctx, "scan run stored", zap.Stringer("scanID", run.ID))
		},
	}

	cmd.Flags().StringP("output", "o", cfg.Scan.OutputDir, "Directory the reports are written to")
	cmd.Flags().Bool("store", false, "Also store the run in the database")
	cmd.Flags().Bool("include-not-launched", false, "Also scan partners whose page is not public yet")

	return cmd
}
