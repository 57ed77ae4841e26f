// Package http exposes the JSON API over the expense ledger, budget
// allocations, exchange rates and account transfers.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"retromoney/internal/cache"
	"retromoney/internal/core"
	"retromoney/internal/fx"
	"retromoney/internal/log"
	"retromoney/internal/rates"
	"retromoney/internal/transfers"
)

const allocationsCacheKey = "allocations"

// ExpenseAPI is the expense operations surface the server needs.
type ExpenseAPI interface {
	List(ctx context.Context) ([]core.Expense, error)
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Update(ctx context.Context, id int64, u core.ExpenseUpdate) error
	Delete(ctx context.Context, id int64) error
}

// BudgetStore persists salary and allocation percentages.
type BudgetStore interface {
	GetSalary(ctx context.Context) (float64, error)
	SaveSalary(ctx context.Context, salary float64) error
	Allocations(ctx context.Context, salary float64) ([]core.Allocation, error)
	Redistribute(ctx context.Context, adjustments []core.Adjustment) error
}

// TransferAPI is the account-transfer operations surface.
type TransferAPI interface {
	Register(ctx context.Context, req transfers.Request) (core.Transfer, error)
	Accounts(ctx context.Context) ([]core.Account, error)
	SetBalance(ctx context.Context, id int64, balance float64) error
	List(ctx context.Context) ([]core.Transfer, error)
	Delete(ctx context.Context, id int64) error
}

// Server wraps the stdlib http.Server with the API's dependencies,
// per-client rate limiting and a short-lived allocations response cache.
type Server struct {
	http.Server

	expenses    ExpenseAPI
	store       BudgetStore
	transfers   TransferAPI
	rateSource  rates.Source
	defaultRate fx.RateType

	rateLimiter      *rateLimiter
	allocCache       *cache.LRUCache[core.AllocationSet]
	stopCacheCleanup chan struct{}
	httpLog          *log.HTTPLogger
	logger           *log.Logger
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, exp ExpenseAPI, store BudgetStore, tr TransferAPI, rateSource rates.Source, defaultRate fx.RateType, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		expenses:         exp,
		store:            store,
		transfers:        tr,
		rateSource:       rateSource,
		defaultRate:      defaultRate,
		rateLimiter:      newRateLimiter(),
		allocCache:       cache.NewLRUCache[core.AllocationSet](10, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
		httpLog:          log.NewHTTPLogger(logger.WithComponent(log.ComponentHTTP)),
		logger:           logger.WithComponent(log.ComponentHTTP),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/expenses", s.withAPIMiddleware(s.handleExpenses))
	mux.HandleFunc("/api/expenses/", s.withAPIMiddleware(s.handleExpenseByID))
	mux.HandleFunc("/api/salary", s.withAPIMiddleware(s.handleSalary))
	mux.HandleFunc("/api/exchange-rate", s.withAPIMiddleware(s.handleLegacyRate))
	mux.HandleFunc("/api/exchange-rate/", s.withAPIMiddleware(s.handleRate))
	mux.HandleFunc("/api/budget-allocations", s.withAPIMiddleware(s.handleAllocations))
	mux.HandleFunc("/api/budget-allocations/redistribute", s.withAPIMiddleware(s.handleRedistribute))
	mux.HandleFunc("/api/accounts", s.withAPIMiddleware(s.handleAccounts))
	mux.HandleFunc("/api/transfers", s.withAPIMiddleware(s.handleTransfers))
	mux.HandleFunc("/api/transfers/", s.withAPIMiddleware(s.handleTransferByID))

	return s
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// withAPIMiddleware adds security headers, rate limiting, request IDs and
// structured request logging around a handler.
func (s *Server) withAPIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)

		requestID := generateRequestID()
		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		s.httpLog.LogStart(ctx, r, ip)

		if isMutation(r.Method) && !s.rateLimiter.allow(ip) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	}
}

// startCacheCleanup runs periodic cleanup for the allocations cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.allocCache.CleanExpired(); cleaned > 0 {
				s.logger.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateAllocations drops the cached reconciliation after any mutation
// that changes totals or allocation percentages.
func (s *Server) invalidateAllocations() {
	s.allocCache.Delete(allocationsCacheKey)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
