package main

import (
	"context"
	"fmt"

	"domainscan/internal/classifier"
	"domainscan/internal/config"
	"domainscan/internal/partners"
	"domainscan/internal/scanner"
	"domainscan/pkg/domain"
	"domainscan/pkg/fetcher/httpfetch"
	"domainscan/pkg/logger"
	"domainscan/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// newScanner builds a scanner from config together with the partner list it
// should scan, filtered, deduplicated and ordered by partners.Select.
func newScanner(ctx context.Context,
	cfg *config.Config,
	mp metric.MeterProvider,
	options scanner.Options) (*scanner.Scanner, []domain.Partner, error) {
	vocabulary, err := classifier.LoadVocabulary(cfg.Scan.VocabularyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load status vocabulary: %w", err)
	}

	list, err := partners.Load(cfg.Scan.PartnersFile)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load partner list: %w", err)
	}
	list = partners.Select(list, options.IncludeNotLaunched)

	m, err := metrics.NewScan(mp, otel.GetTracerProvider())
	if err != nil {
		return nil, nil, fmt.Errorf("could not create scan metrics: %w", err)
	}

	f := httpfetch.New(httpfetch.Options{
		UserAgent:    cfg.Scan.UserAgent,
		MaxBodyBytes: cfg.Scan.MaxBodyBytes,
	})

	logger.Info(ctx, "scanner configured",
		zap.String("vocabulary", vocabulary.Version),
		zap.Int("partners", len(list)),
		zap.Duration("timeoutPerPage", options.TimeoutPerPage),
		zap.Duration("delayBetweenRequests", options.DelayBetweenRequests))
	if logger.IsDebug(ctx) {
		logger.Debug(ctx, "partner pages", zap.Strings("urls", partners.URLs(list)))
	}

	return scanner.New(f, classifier.New(vocabulary), m, options), list, nil
}
