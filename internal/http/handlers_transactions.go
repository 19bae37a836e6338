package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

// transactionRequest carries a transaction write. Amount is integer cents;
// AmountDecimal accepts a human-entered decimal string ("12.50" or
// "12,50") and wins when both are present.
type transactionRequest struct {
	Description      string `json:"description"`
	Amount           int64  `json:"amount"`
	AmountDecimal    string `json:"amountDecimal,omitempty"`
	CategoryID       *int64 `json:"categoryId"`
	PaidBy           int64  `json:"paidBy"`
	Date             string `json:"date"`
	Type             string `json:"type"`
	IsIncrement      bool   `json:"isIncrement"`
	IsCreditCard     bool   `json:"isCreditCard"`
	ExcludeFromSplit bool   `json:"excludeFromSplit"`
	IsForecast       bool   `json:"isForecast"`

	// Set when accepting a synthesized recurring row as a real one.
	RecurringTemplateID *int64 `json:"recurringTemplateId,omitempty"`
}

func (req *transactionRequest) toTransaction(householdID int64) (core.Transaction, error) {
	cents := req.Amount
	if strings.TrimSpace(req.AmountDecimal) != "" {
		parsed, err := core.ParseDecimalToCents(req.AmountDecimal)
		if err != nil {
			return core.Transaction{}, err
		}
		cents = parsed
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	return core.Transaction{
		HouseholdID:         householdID,
		Source:              core.SourceStored,
		Description:         strings.TrimSpace(req.Description),
		Amount:              core.Money{Cents: cents},
		CategoryID:          req.CategoryID,
		PaidBy:              req.PaidBy,
		Date:                date,
		Type:                core.TransactionType(req.Type),
		IsIncrement:         req.IsIncrement,
		IsCreditCard:        req.IsCreditCard,
		ExcludeFromSplit:    req.ExcludeFromSplit,
		IsForecast:          req.IsForecast,
		RecurringTemplateID: req.RecurringTemplateID,
	}, nil
}

// handleListTransactions returns the assembled month: stored rows plus
// synthesized recurring ones, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	period, err := periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, err := s.assembler.AssembleMonth(r.Context(), household, period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Month assembly failed",
			"household", household, "period", period.String(), "error", err)
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"period":       period,
		"transactions": txs,
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.txReader.GetTransaction(r.Context(), household, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := req.toTransaction(household)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := req.toTransaction(household)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.ID = id

	if err := s.transactions.Update(r.Context(), tx); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.transactions.Delete(r.Context(), household, id); err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	w.WriteHeader(http.StatusNoContent)
}

type bulkUpdateRequest struct {
	IDs   []int64               `json:"ids"`
	Patch core.TransactionPatch `json:"patch"`
}

func (s *Server) handleBulkUpdateTransactions(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)

	var req bulkUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "no transaction ids given")
		return
	}

	n, err := s.transactions.BulkUpdate(r.Context(), household, req.IDs, req.Patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleBulkDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	household := s.householdID(r)

	var req bulkDeleteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "no transaction ids given")
		return
	}

	n, err := s.transactions.BulkDelete(r.Context(), household, req.IDs)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	s.invalidateDashboards(household)
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
