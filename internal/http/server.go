// Package http exposes the JSON API: dashboard reads, transaction and
// template writes, household settings, and month lifecycle.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/luchesigui/finance-manager-sub000/internal/cache"
	"github.com/luchesigui/finance-manager-sub000/internal/core"
	"github.com/luchesigui/finance-manager-sub000/internal/services"
)

// Store interfaces are narrowed per concern so tests can fake only what
// a handler touches.
type (
	RecurringStore interface {
		ListRecurringTemplates(ctx context.Context, householdID int64, activeOnly bool, limit, offset int) ([]core.RecurringTemplate, int64, error)
		GetRecurringTemplate(ctx context.Context, householdID, id int64) (core.RecurringTemplate, error)
		CreateRecurringTemplate(ctx context.Context, t core.RecurringTemplate) (core.RecurringTemplate, error)
		UpdateRecurringTemplate(ctx context.Context, t core.RecurringTemplate) error
		DeactivateRecurringTemplate(ctx context.Context, householdID, id int64) error
	}

	SettingsStore interface {
		ListPeople(ctx context.Context, householdID int64) ([]core.Person, error)
		CreatePerson(ctx context.Context, p core.Person) (core.Person, error)
		UpdatePerson(ctx context.Context, p core.Person) error
		ListCategories(ctx context.Context, householdID int64) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	}

	MonthStore interface {
		CloseMonth(ctx context.Context, householdID int64, period core.YearMonth) error
		ReopenMonth(ctx context.Context, householdID int64, period core.YearMonth) error
		ClosedMonthsSet(ctx context.Context, householdID int64, periods []core.YearMonth) (map[core.YearMonth]bool, error)
	}

	TransactionReader interface {
		GetTransaction(ctx context.Context, householdID, id int64) (core.Transaction, error)
		ListTransactionsBetween(ctx context.Context, householdID int64, from, to core.Date) ([]core.Transaction, error)
	}
)

type Server struct {
	http.Server

	dashboards   *services.DashboardService
	transactions *services.TransactionService
	assembler    *services.MonthAssembler
	txReader     TransactionReader
	recurring    RecurringStore
	settings     SettingsStore
	months       MonthStore

	defaultHouseholdID int64

	rateLimiter *rateLimiter

	// Dashboards are expensive to assemble; reads are memoized per
	// household+period and invalidated on any write.
	dashboardCache *cache.LRUCache[services.Dashboard]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

type Options struct {
	Addr               string
	DefaultHouseholdID int64
	CacheTTL           time.Duration
	CacheEntries       int
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(opts Options,
	dashboards *services.DashboardService,
	transactions *services.TransactionService,
	assembler *services.MonthAssembler,
	txReader TransactionReader,
	recurring RecurringStore,
	settings SettingsStore,
	months MonthStore,
) *Server {
	mux := http.NewServeMux()

	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.CacheEntries <= 0 {
		opts.CacheEntries = 100
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		dashboards:         dashboards,
		transactions:       transactions,
		assembler:          assembler,
		txReader:           txReader,
		recurring:          recurring,
		settings:           settings,
		months:             months,
		defaultHouseholdID: opts.DefaultHouseholdID,
		rateLimiter:        newRateLimiter(),
		dashboardCache:     cache.NewLRUCache[services.Dashboard](opts.CacheEntries, opts.CacheTTL),
		stopCacheCleanup:   make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /api/outliers", s.withMiddleware(s.handleOutliers))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/bulk-update", s.withMiddleware(s.handleBulkUpdateTransactions))
	mux.HandleFunc("POST /api/transactions/bulk-delete", s.withMiddleware(s.handleBulkDeleteTransactions))

	mux.HandleFunc("GET /api/recurring", s.withMiddleware(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.withMiddleware(s.handleCreateRecurring))
	mux.HandleFunc("PATCH /api/recurring/{id}", s.withMiddleware(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withMiddleware(s.handleDeactivateRecurring))

	mux.HandleFunc("GET /api/people", s.withMiddleware(s.handleListPeople))
	mux.HandleFunc("POST /api/people", s.withMiddleware(s.handleCreatePerson))
	mux.HandleFunc("PATCH /api/people/{id}", s.withMiddleware(s.handleUpdatePerson))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))

	mux.HandleFunc("GET /api/months/closed", s.withMiddleware(s.handleClosedMonths))
	mux.HandleFunc("POST /api/months/{year}/{month}/close", s.withMiddleware(s.handleCloseMonth))
	mux.HandleFunc("POST /api/months/{year}/{month}/reopen", s.withMiddleware(s.handleReopenMonth))

	return s
}

// withMiddleware adds security headers, rate limiting, request IDs, and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if _, err := s.settings.ListPeople(ctx, s.defaultHouseholdID); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["cache"] = map[string]any{
		"dashboard_entries": s.dashboardCache.Size(),
		"status":            "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.dashboardCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func dashboardCacheKey(householdID int64, period core.YearMonth) string {
	return fmt.Sprintf("%d/%s", householdID, period)
}

// invalidateDashboards drops every cached period for the household. Writes
// can move rows across accounting months, so a single-period invalidation
// is not safe.
func (s *Server) invalidateDashboards(householdID int64) {
	s.dashboardCache.DeletePrefix(fmt.Sprintf("%d/", householdID))
}
