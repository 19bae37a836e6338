package http

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/luchesigui/finance-manager-sub000/internal/finance"
)

// handleDashboard serves the assembled month plus every derived aggregate:
// incomes, split shares, settlement rows and transfer suggestions.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := dashboardCacheKey(household, period)
	if cached, found := s.dashboardCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit",
			"household", household, "period", period.String())
		writeJSON(w, http.StatusOK, cached)
		return
	}

	dash, err := s.dashboards.Build(r.Context(), household, period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard build failed",
			"household", household, "period", period.String(), "error", err)
		writeStoreError(w, err)
		return
	}

	s.dashboardCache.Set(key, dash)
	writeJSON(w, http.StatusOK, dash)
}

type outlierEntry struct {
	CategoryID int64                 `json:"categoryId"`
	Stats      finance.CategoryStats `json:"stats"`
}

// handleOutliers reports per-category spending statistics over the twelve
// full months preceding the requested period.
func (s *Server) handleOutliers(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	windowEnd := period.Prev()
	windowStart := windowEnd
	for i := 0; i < 11; i++ {
		windowStart = windowStart.Prev()
	}

	txs, err := s.txReader.ListTransactionsBetween(r.Context(), household,
		windowStart.First(), windowEnd.Last())
	if err != nil {
		slog.ErrorContext(r.Context(), "Outlier window fetch failed",
			"household", household, "period", period.String(), "error", err)
		writeStoreError(w, err)
		return
	}

	stats := finance.CategoryStatistics(txs, period)

	// Stable order for clients and for tests.
	entries := make([]outlierEntry, 0, len(stats))
	for id, st := range stats {
		entries = append(entries, outlierEntry{CategoryID: id, Stats: st})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CategoryID < entries[j].CategoryID
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"period":     period,
		"categories": entries,
	})
}
