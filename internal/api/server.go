// Package api assembles the HTTP surface of the scan service: the v1 JSON API,
// its OpenAPI document and Swagger UI, metrics, health and pprof.
package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"domainscan/internal/api/handler/v1handler"
	"domainscan/internal/config"
	"domainscan/pkg/controller"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
)

const (
	specPath   = "/specs/v1.yaml"
	docsPath   = "/v1/docs/"
	healthPath = "/healthz"

	timeoutBody = `{"code":"TIMEOUT","message":"request timed out"}`
)

//go:embed specs/v1.yaml
var v1Spec []byte

// Options configures the server. See config.Config.HTTP for the meaning of the
// timeouts.
type Options struct {
	SecHandlerOptions *v1handler.SecHandlerOptions

	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RequestTimeout    time.Duration
	MaxHeaderBytes    int

	MetricsPath   string
	AllowedOrigin string
}

// NewOptions reads Options from cfg.
func NewOptions(cfg *config.Config) Options {
	h := cfg.HTTP

	return Options{
		SecHandlerOptions: v1handler.NewSecHandlerOptions(cfg),
		Addr:              h.Addr,
		ReadTimeout:       h.ReadTimeout,
		ReadHeaderTimeout: h.ReadHeaderTimeout,
		WriteTimeout:      h.WriteTimeout,
		IdleTimeout:       h.IdleTimeout,
		RequestTimeout:    h.RequestTimeout,
		MaxHeaderBytes:    h.MaxHeaderBytes,
		MetricsPath:       h.MetricsPath,
		AllowedOrigin:     h.AllowedOrigin,
	}
}

// Deps are the collaborators behind the routes.
type Deps struct {
	v1handler.Deps

	// Ping backs /healthz, which is not served when Ping is nil.
	Ping func(ctx context.Context) error
	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Handler returns the fully wrapped root handler without the request timeout.
func Handler(deps Deps, opts Options) (http.Handler, error) {
	sec, err := v1handler.NewSecHandler(opts.SecHandlerOptions)
	if err != nil {
		return nil, fmt.Errorf("could not create sec handler: %w", err)
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle(opts.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc(specPath, serveSpec)
	mux.Handle(docsPath, v5emb.New("Domain Scan Service", specPath, docsPath))
	mux.Handle("/v1/", http.StripPrefix("/v1", v1handler.New(deps.Deps).Routes(sec)))
	if deps.Ping != nil {
		mux.Handle(healthPath, controller.HealthHandler(deps.Ping))
	}
	mux.Handle(controller.PprofPrefix, controller.PprofMux())

	return controller.WithLogger(controller.WithCORS(opts.AllowedOrigin, mux), opts.MetricsPath, healthPath), nil
}

// NewServer builds the http.Server serving Handler, bounding each request by
// RequestTimeout.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	handler, err := Handler(deps, opts)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           http.TimeoutHandler(handler, opts.RequestTimeout, timeoutBody),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}, nil
}

func serveSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(v1Spec)
}
