package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
	"github.com/luchesigui/finance-manager-sub000/internal/services"
	"github.com/luchesigui/finance-manager-sub000/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps storage and validation failures to HTTP statuses:
// unknown rows are 404, virtual-row writes are 422, domain validation is
// 422, everything else is 500.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrVirtualTransaction):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrInvalidType) ||
		errors.Is(err, core.ErrInvalidDay) ||
		errors.Is(err, core.ErrIncomeHasCategory) ||
		errors.Is(err, core.ErrMissingPayer)
}

// householdID resolves the acting household from the X-Household-ID
// header, falling back to the configured default.
func (s *Server) householdID(r *http.Request) int64 {
	if v := strings.TrimSpace(r.Header.Get("X-Household-ID")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return s.defaultHouseholdID
}

// periodFromQuery reads year and month query params, defaulting to the
// current calendar month.
func periodFromQuery(r *http.Request) (core.YearMonth, error) {
	now := time.Now()
	period := core.YearMonth{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.YearMonth{}, fmt.Errorf("invalid year %q", v)
		}
		period.Year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return core.YearMonth{}, fmt.Errorf("invalid month %q", v)
		}
		period.Month = m
	}
	return period, nil
}

func pathID(r *http.Request) (int64, error) {
	v := r.PathValue("id")
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", v)
	}
	return id, nil
}

func pathPeriod(r *http.Request) (core.YearMonth, error) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return core.YearMonth{}, fmt.Errorf("invalid year %q", r.PathValue("year"))
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		return core.YearMonth{}, fmt.Errorf("invalid month %q", r.PathValue("month"))
	}
	return core.YearMonth{Year: year, Month: month}, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
