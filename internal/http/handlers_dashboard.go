package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/report"
)

// cachedView serves a dashboard view from the LRU cache, computing and
// storing it on a miss. Values are kept as marshaled bytes so hits skip
// both aggregation and encoding.
func (s *Server) cachedView(w http.ResponseWriter, r *http.Request, key string, compute func() (any, error)) {
	if body, ok := s.dashCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "key", key)
		respondRawJSON(w, http.StatusOK, body)
		return
	}

	view, err := compute()
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard view failed", "error", err, "key", key)
		respondError(w, http.StatusInternalServerError, "internal", "could not build view")
		return
	}

	body, err := json.Marshal(view)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal view", "error", err, "key", key)
		respondError(w, http.StatusInternalServerError, "internal", "could not encode view")
		return
	}

	s.dashCache.Set(key, body)
	respondRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period := report.Period(strings.TrimSpace(r.URL.Query().Get("period")))
	switch period {
	case "":
		period = report.Daily
	case report.Daily, report.Weekly, report.Monthly:
	default:
		respondError(w, http.StatusUnprocessableEntity, "validation", "period must be daily, weekly or monthly")
		return
	}

	s.cachedView(w, r, "summary:"+string(period), func() (any, error) {
		list := s.journal.List()
		return map[string]any{
			"totalSales":   report.TotalSales(list),
			"periodTotal":  report.PeriodSummary(list, period, time.Now()),
			"transactions": len(list),
			"period":       string(period),
		}, nil
	})
}

func (s *Server) handleTopItems(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.TopItems
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respondError(w, http.StatusUnprocessableEntity, "validation", "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	s.cachedView(w, r, "top-items:"+strconv.Itoa(limit), func() (any, error) {
		return report.TopItemsByQuantity(s.journal.List(), limit), nil
	})
}

func (s *Server) handleByProduct(w http.ResponseWriter, r *http.Request) {
	s.cachedView(w, r, "by-product", func() (any, error) {
		return report.RollupByProduct(s.journal.List()), nil
	})
}

func (s *Server) handleOverTime(w http.ResponseWriter, r *http.Request) {
	s.cachedView(w, r, "over-time", func() (any, error) {
		return report.SeriesOverTime(s.journal.List()), nil
	})
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	s.cachedView(w, r, "by-category", func() (any, error) {
		return report.RollupByCategory(s.journal.List()), nil
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.Products())
}
