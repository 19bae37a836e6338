package http

import (
	"net/http"
	"strings"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

type personRequest struct {
	Name   string `json:"name"`
	Income int64  `json:"income"` // cents
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := s.settings.ListPeople(r.Context(), s.householdID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"people": people})
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)

	var req personRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if req.Income < 0 {
		writeError(w, http.StatusUnprocessableEntity, "income cannot be negative")
		return
	}

	created, err := s.settings.CreatePerson(r.Context(), core.Person{
		HouseholdID: household,
		Name:        strings.TrimSpace(req.Name),
		Income:      core.Money{Cents: req.Income},
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdatePerson changes name or declared income. Income changes move
// every subsequent fair-share computation, hence the cache flush.
func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req personRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if req.Income < 0 {
		writeError(w, http.StatusUnprocessableEntity, "income cannot be negative")
		return
	}

	p := core.Person{
		ID:          id,
		HouseholdID: household,
		Name:        strings.TrimSpace(req.Name),
		Income:      core.Money{Cents: req.Income},
	}
	if err := s.settings.UpdatePerson(r.Context(), p); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusOK, p)
}

type categoryRequest struct {
	Name          string  `json:"name"`
	TargetPercent float64 `json:"targetPercent"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.settings.ListCategories(r.Context(), s.householdID(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if req.TargetPercent < 0 || req.TargetPercent > 100 {
		writeError(w, http.StatusUnprocessableEntity, "target percent must be between 0 and 100")
		return
	}

	created, err := s.settings.CreateCategory(r.Context(), core.Category{
		HouseholdID:   household,
		Name:          strings.TrimSpace(req.Name),
		TargetPercent: req.TargetPercent,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusCreated, created)
}

// handleClosedMonths reports which months of the given year are closed.
func (s *Server) handleClosedMonths(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	periods := make([]core.YearMonth, 0, 12)
	for m := 1; m <= 12; m++ {
		periods = append(periods, core.YearMonth{Year: period.Year, Month: m})
	}

	closedSet, err := s.months.ClosedMonthsSet(r.Context(), household, periods)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	closed := make([]core.YearMonth, 0, len(closedSet))
	for _, p := range periods {
		if closedSet[p] {
			closed = append(closed, p)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":   period.Year,
		"closed": closed,
	})
}

// handleCloseMonth freezes a period: synthesized recurring rows stop
// appearing in it and only stored rows remain.
func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	period, err := pathPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.months.CloseMonth(r.Context(), household, period); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusOK, map[string]any{"period": period, "closed": true})
}

func (s *Server) handleReopenMonth(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	period, err := pathPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.months.ReopenMonth(r.Context(), household, period); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusOK, map[string]any{"period": period, "closed": false})
}
