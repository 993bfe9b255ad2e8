package v1handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"domainscan/internal/export"
	"domainscan/internal/partners"
	"domainscan/internal/scanner"
	"domainscan/internal/worker"
	"domainscan/pkg/domain"
	"domainscan/pkg/serrors"
	"domainscan/pkg/storage"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

// Bounds of the limit query parameter of the history endpoint.
const (
	// DefaultLimit is used when the request does not set a limit.
	DefaultLimit = 20
	// MaxLimit is the largest accepted limit; larger values are rejected with
	// serrors.ErrBadRequest.
	MaxLimit = 100
)

// LatestRun returns the report of the most recent scan run.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) error {
	rs, err := h.latest(r.Context())
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { export.EncodeRun(e, rs.Run()) })

	return nil
}

// GetRun returns the report of a scan run by ID.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) error {
	ID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return serrors.With(serrors.ErrBadRequest, "invalid scan id")
	}

	run, err := h.deps.Runs.RunByID(r.Context(), domain.ScanID(ID))
	if err != nil {
		return errors.Wrap(err, "get run")
	}
	if run == nil {
		return serrors.With(serrors.ErrNotFound, "scan run %s not found", ID)
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { export.EncodeRun(e, scanner.NewResultSet(*run).Run()) })

	return nil
}

// NeedingUpdate returns the partners of the latest run flagged High or Medium,
// most urgent first.
func (h *Handler) NeedingUpdate(w http.ResponseWriter, r *http.Request) error {
	rs, err := h.latest(r.Context())
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			encodeRunRef(e, rs.Run())
			e.Field("results", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, res := range rs.NeedingUpdate() {
						export.EncodeResult(e, res)
					}
				})
			})
		})
	})

	return nil
}

// NoDomains lists the partner pages of the latest run that yielded no domains.
func (h *Handler) NoDomains(w http.ResponseWriter, r *http.Request) error {
	rs, err := h.latest(r.Context())
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			encodeRunRef(e, rs.Run())
			e.Field("urls", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, u := range rs.NoDomainURLs() {
						e.Str(u)
					}
				})
			})
		})
	})

	return nil
}

// GetResult returns the newest stored result of the partner page given by the
// url query parameter.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) error {
	URL, err := partnerURL(r)
	if err != nil {
		return err
	}

	entry, err := h.deps.Runs.LatestResult(r.Context(), URL)
	if err != nil {
		return errors.Wrap(err, "get latest result")
	}
	if entry == nil {
		return serrors.With(serrors.ErrNotFound, "no result for %s", URL)
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeHistoryEntry(e, *entry) })

	return nil
}

// History returns past results of a partner page, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) error {
	URL, err := partnerURL(r)
	if err != nil {
		return err
	}

	limit := DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > MaxLimit {
			return serrors.With(serrors.ErrBadRequest, "limit must be between 1 and %d", MaxLimit)
		}
	}

	entries, err := h.deps.Runs.PartnerHistory(r.Context(), URL, uint(limit)) //nolint: gosec
	if err != nil {
		return errors.Wrap(err, "get partner history")
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("url", func(e *jx.Encoder) { e.Str(URL) })
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, entry := range entries {
						encodeHistoryEntry(e, entry)
					}
				})
			})
		})
	})

	return nil
}

// CreateScan enqueues an on-demand scan. It answers 202 whether or not a scan
// was already queued; "enqueued" tells the two apart.
func (h *Handler) CreateScan(w http.ResponseWriter, r *http.Request) error {
	added, err := h.deps.Jobs.AddJob(r.Context(), worker.NewScanJobArgs("api", h.deps.MaxAttempts), nil)
	if err != nil {
		return errors.Wrap(err, "enqueue scan")
	}

	writeJSON(w, http.StatusAccepted, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("enqueued", func(e *jx.Encoder) { e.Bool(added) })
		})
	})

	return nil
}

func (h *Handler) latest(ctx context.Context) (*scanner.ResultSet, error) {
	run, err := h.deps.Runs.LatestRun(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get latest run")
	}
	if run == nil {
		return nil, serrors.With(serrors.ErrNotFound, "no scan run recorded yet")
	}

	return scanner.NewResultSet(*run), nil
}

func partnerURL(r *http.Request) (string, error) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		return "", serrors.With(serrors.ErrBadRequest, "url query parameter is required")
	}

	URL, err := partners.NormalizeURL(raw)
	if err != nil {
		return "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid url")
	}

	return URL, nil
}

func encodeRunRef(e *jx.Encoder, run domain.ScanRun) {
	e.Field("scan_id", func(e *jx.Encoder) { e.Str(run.ID.String()) })
	e.Field("scan_timestamp", func(e *jx.Encoder) { e.Str(run.StartedAt.UTC().Format(time.RFC3339)) })
}

func encodeHistoryEntry(e *jx.Encoder, entry storage.HistoryEntry) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("scan_id", func(e *jx.Encoder) { e.Str(entry.ScanID.String()) })
		e.Field("scan_timestamp", func(e *jx.Encoder) { e.Str(entry.StartedAt.UTC().Format(time.RFC3339)) })
		e.Field("result", func(e *jx.Encoder) { export.EncodeResult(e, entry.Result) })
	})
}
