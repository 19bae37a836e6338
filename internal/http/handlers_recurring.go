package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

type recurringRequest struct {
	Description      string `json:"description"`
	Amount           int64  `json:"amount"`
	AmountDecimal    string `json:"amountDecimal,omitempty"`
	CategoryID       *int64 `json:"categoryId"`
	PaidBy           int64  `json:"paidBy"`
	Type             string `json:"type"`
	IsIncrement      bool   `json:"isIncrement"`
	IsCreditCard     bool   `json:"isCreditCard"`
	ExcludeFromSplit bool   `json:"excludeFromSplit"`
	DayOfMonth       int    `json:"dayOfMonth"`
	IsActive         *bool  `json:"isActive,omitempty"`
}

func (req *recurringRequest) toTemplate(householdID int64) (core.RecurringTemplate, error) {
	cents := req.Amount
	if strings.TrimSpace(req.AmountDecimal) != "" {
		parsed, err := core.ParseDecimalToCents(req.AmountDecimal)
		if err != nil {
			return core.RecurringTemplate{}, err
		}
		cents = parsed
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return core.RecurringTemplate{
		HouseholdID:      householdID,
		Description:      strings.TrimSpace(req.Description),
		Amount:           core.Money{Cents: cents},
		CategoryID:       req.CategoryID,
		PaidBy:           req.PaidBy,
		Type:             core.TransactionType(req.Type),
		IsIncrement:      req.IsIncrement,
		IsCreditCard:     req.IsCreditCard,
		ExcludeFromSplit: req.ExcludeFromSplit,
		DayOfMonth:       req.DayOfMonth,
		IsActive:         active,
	}, nil
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)

	activeOnly := r.URL.Query().Get("active") == "true"
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	templates, total, err := s.recurring.ListRecurringTemplates(r.Context(), household, activeOnly, limit, offset)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"templates": templates,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)

	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := req.toTemplate(household)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := tpl.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.recurring.CreateRecurringTemplate(r.Context(), tpl)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tpl, err := req.toTemplate(household)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tpl.ID = id
	if err := tpl.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.recurring.UpdateRecurringTemplate(r.Context(), tpl); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusOK, tpl)
}

// handleDeactivateRecurring soft-deletes: the template stops materializing
// in future months but stays linked from accepted rows.
func (s *Server) handleDeactivateRecurring(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.recurring.DeactivateRecurringTemplate(r.Context(), household, id); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
