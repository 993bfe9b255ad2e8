// Package v1handler serves the v1 HTTP API over stored scan runs.
package v1handler

import (
	"context"
	"net/http"

	"domainscan/pkg/logger"
	"domainscan/pkg/serrors"
	"domainscan/pkg/storage"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Deps are the collaborators of Handler.
type Deps struct {
	// Runs reads stored scan runs.
	Runs storage.RunStorage
	// Jobs enqueues on-demand scans.
	Jobs storage.JobStorage
	// MaxAttempts is the attempt limit of enqueued scan jobs.
	MaxAttempts int
}

// Handler implements the v1 endpoints.
type Handler struct {
	deps Deps
}

// ErrorResponse is the body and status code of a failed request.
type ErrorResponse struct {
	StatusCode int
	Response   struct {
		Code    string
		Message string
	}
}

// handlerFunc is an endpoint that reports failures as errors instead of writing them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Routes returns the v1 endpoints relative to the /v1 prefix, guarded by sec.
func (h *Handler) Routes(sec *SecHandler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /runs/latest", h.handle(h.LatestRun))
	mux.Handle("GET /runs/latest/needs-update", h.handle(h.NeedingUpdate))
	mux.Handle("GET /runs/{id}", h.handle(h.GetRun))
	mux.Handle("GET /results", h.handle(h.GetResult))
	mux.Handle("GET /no-domains", h.handle(h.NoDomains))
	mux.Handle("GET /history", h.handle(h.History))
	mux.Handle("POST /scans", h.handle(h.CreateScan))

	return sec.Middleware(mux, h.writeError)
}

func (h *Handler) handle(fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.writeError(w, r, err)
		}
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)
	writeJSON(w, res.StatusCode, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Str(res.Response.Code) })
			e.Field("message", func(e *jx.Encoder) { e.Str(res.Response.Message) })
		})
	})
}

var kindStatus = []struct { //nolint: gochecknoglobals
	kind    serrors.Kind
	status  int
	message string
}{
	{serrors.ErrNotFound, http.StatusNotFound, "resource not found"},
	{serrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{serrors.ErrBadRequest, http.StatusBadRequest, "bad request"},
	{serrors.ErrRateLimited, http.StatusTooManyRequests, "too many requests"},
	{serrors.ErrTimeout, http.StatusGatewayTimeout, "timed out"},
	{serrors.ErrUnavailable, http.StatusServiceUnavailable, "service unavailable"},
	{serrors.ErrFetchFailed, http.StatusBadGateway, "fetch failed"},
}

// NewError maps err to a response. The outermost semantic kind decides the
// status and its message is kept; anything else is logged and reported as an
// internal error.
func (h *Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	res := &ErrorResponse{StatusCode: http.StatusInternalServerError}
	res.Response.Code = serrors.ErrInternal.Error()
	res.Response.Message = "internal error"

	kind := serrors.KindOf(err)
	var serr *serrors.Error
	if !errors.As(err, &serr) || serr.Kind() != kind {
		serr = nil
	}

	for _, ks := range kindStatus {
		if kind != ks.kind {
			continue
		}

		res.StatusCode = ks.status
		res.Response.Code = ks.kind.Error()
		res.Response.Message = ks.message
		if serr != nil && serr.Message() != "" {
			res.Response.Message = serr.Message()
		}

		return res
	}

	logger.Error(ctx, "request failed", zap.Error(err))

	return res
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
