package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/summary"
)

const cacheControl = "private, max-age=60"

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
	now       func() time.Time
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
		now:       time.Now,
	}
}

type summaryResponse struct {
	summary.Result
	Query queryEcho `json:"query"`
}

type queryEcho struct {
	Order       []string          `json:"order"`
	Sort        summary.SortKey   `json:"sort"`
	Dir         summary.Direction `json:"dir"`
	HideUnknown bool              `json:"hideUnknown"`
}

func echo(q summary.Query) queryEcho {
	order := make([]string, len(q.Order))
	for i, d := range q.Order {
		order[i] = d.String()
	}
	return queryEcho{Order: order, Sort: q.Sort, Dir: q.Dir, HideUnknown: q.HideUnknown}
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, "invalid summary query"))
		return
	}

	res, err := h.dashboard.Summary(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, summaryResponse{Result: res, Query: echo(q)}, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleComparison(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, "invalid comparison query"))
		return
	}
	sel, err := parseSelector(r, h.dashboard.Location(), h.now())
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, "invalid comparison period"))
		return
	}

	cmp, err := h.dashboard.Compare(r.Context(), q, sel)
	if err != nil {
		if !stderrors.Is(err, services.ErrNotReady) {
			err = errors.ValidationWrap(err, "invalid comparison period")
		}
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, newComparisonView(cmp, sel), map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleWarehouses(w http.ResponseWriter, r *http.Request) {
	rows, total, err := h.dashboard.Warehouses(r.Context(), parseFilters(r.URL.Query()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, map[string]any{
		"rows":  rows,
		"total": total,
	}, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleHeadToHead(w http.ResponseWriter, r *http.Request) {
	end, err := parseDate(r, h.dashboard.Location(), h.now())
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, "invalid head-to-head date"))
		return
	}
	days, err := parseDays(r)
	if err != nil {
		h.fail(w, r, errors.ValidationWrap(err, "invalid head-to-head window"))
		return
	}

	table, err := h.dashboard.HeadToHead(r.Context(), end, days, parseFilters(r.URL.Query()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, table, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.dashboard.Ready() {
		status = "loading"
	}

	errors.WriteSuccessWithHeaders(w, map[string]string{
		"status":    status,
		"timestamp": h.now().Format(time.RFC3339),
		"version":   "1.0.0",
	}, map[string]string{
		"Cache-Control": "no-cache",
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}

// fail maps service errors onto the JSON error envelope.
func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, err)
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if stderrors.Is(err, services.ErrNotReady) {
		err = errors.ServiceUnavailableWrap(err, "Sales data is still loading")
	}
	errors.WriteError(w, r, logger, err)
}
