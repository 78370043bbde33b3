// Package api provides the HTTP surface over the escrow ledger. It plays
// the role the signing/broadcast layer plays on chain: callers submit
// operations, receive a txid, and render the contract error codes.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitbond-network/bitbond/internal/app/bank"
	"github.com/bitbond-network/bitbond/internal/app/escrow"
	"github.com/bitbond-network/bitbond/internal/domain"
	"github.com/bitbond-network/bitbond/internal/health"
	"github.com/bitbond-network/bitbond/internal/infra/chain"
	"github.com/bitbond-network/bitbond/internal/infra/metrics"
)

// Server is the BitBond HTTP API server.
type Server struct {
	escrow         *escrow.Service
	bank           *bank.Service
	clock          *chain.Clock
	checker        *health.Checker
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(esc *escrow.Service, bnk *bank.Service, clock *chain.Clock) *Server {
	return &Server{escrow: esc, bank: bnk, clock: clock}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealthChecker attaches the health checker backing /health.
func (s *Server) SetHealthChecker(c *health.Checker) { s.checker = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)
	if s.metricsEnabled {
		r.Use(durationMiddleware)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Get("/{id}", s.handleGetTask)
			r.Get("/{id}/expired", s.handleExpiredCheck)
			r.Post("/{id}/verify", s.handleVerifyTask)
			r.Post("/{id}/complete", s.handleMarkCompleted)
			r.Post("/{id}/reclaim", s.handleReclaim)
		})

		r.Get("/users/{principal}/stats", s.handleUserStats)

		r.Route("/accounts/{principal}", func(r chi.Router) {
			r.Get("/balance", s.handleAccountBalance)
			r.Get("/ledger", s.handleAccountLedger)
			r.Post("/deposit", s.handleDeposit)
		})

		r.Route("/escrow", func(r chi.Router) {
			r.Get("/balance", s.handleContractBalance)
			r.Get("/next-id", s.handleNextTaskID)
		})

		r.Route("/chain", func(r chi.Router) {
			r.Get("/height", s.handleChainHeight)
			r.Post("/advance", s.handleChainAdvance)
		})
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := http.StatusOK
	if !s.checker.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"healthy": s.checker.IsHealthy(),
		"checks":  s.checker.Statuses(),
	})
}

// caller extracts the acting principal from the X-Principal header.
func caller(r *http.Request) domain.Principal {
	return domain.Principal(r.Header.Get("X-Principal"))
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response with the contract error code
// (0 for errors outside the on-chain taxonomy).
func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": err.Error(),
			"code":    domain.ErrorCode(err),
		},
	})
}

// writeLedgerError maps a ledger error to its HTTP status and renders it.
func writeLedgerError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}

// statusForError maps the contract error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	switch domain.ErrorCode(err) {
	case 101:
		return http.StatusNotFound
	case 100, 102:
		return http.StatusForbidden
	case 104, 105:
		return http.StatusConflict
	case 106:
		return http.StatusPaymentRequired
	default:
		return http.StatusBadRequest
	}
}

// durationMiddleware records handler latency per matched route pattern.
func durationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RequestDuration.WithLabelValues(route, r.Method).
			Observe(time.Since(start).Seconds())
	})
}

// corsMiddleware adds CORS headers for local dashboard development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Principal")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
