// Package api exposes a simulation session over an HTTP JSON surface:
// read endpoints for state, logs, events, and projections, and control
// endpoints for the tick loop and the simulated ledger.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/epochworks/worldgrid-simulator/internal/ledger"
	"github.com/epochworks/worldgrid-simulator/internal/logging"
	"github.com/epochworks/worldgrid-simulator/internal/observability"
	sim "github.com/epochworks/worldgrid-simulator/internal/sim/state"
	"github.com/epochworks/worldgrid-simulator/model"
	"go.opentelemetry.io/otel/attribute"
)

// LoopController starts and stops the tick loop that drives a session.
// Start returns ErrLoopRunning when the loop is already live and Stop
// returns ErrLoopStopped when it is not.
type LoopController interface {
	Start() error
	Stop() error
	Running() bool
}

// Server binds a session, a tick loop, and a ledger to HTTP routes.
type Server struct {
	session *sim.Session
	loop    LoopController
	ledger  ledger.Ledger
	metrics *observability.SimCollector
	log     logging.Logger
}

// NewServer wires the API surface. loop, led, and collector may be nil;
// the affected endpoints then answer 503 or skip instrumentation.
func NewServer(session *sim.Session, loop LoopController, led ledger.Ledger, collector *observability.SimCollector, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{
		session: session,
		loop:    loop,
		ledger:  led,
		metrics: collector,
		log:     log,
	}
}

// Handler assembles the route table. Every route is wrapped with request
// metrics and a tracing span; request-id annotation wraps the whole mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, http.MethodGet, "/healthz", s.handleHealthz)
	s.route(mux, http.MethodGet, "/v1/status", s.handleStatus)
	s.route(mux, http.MethodGet, "/v1/state", s.handleState)
	s.route(mux, http.MethodGet, "/v1/logs", s.handleLogs)
	s.route(mux, http.MethodGet, "/v1/regions", s.handleRegions)
	s.route(mux, http.MethodGet, "/v1/events/{category}", s.handleEvents)
	s.route(mux, http.MethodGet, "/v1/projection", s.handleProjection)
	s.route(mux, http.MethodGet, "/v1/transactions", s.handleTransactions)
	s.route(mux, http.MethodPost, "/v1/simulation/start", s.handleStart)
	s.route(mux, http.MethodPost, "/v1/simulation/stop", s.handleStop)
	s.route(mux, http.MethodPost, "/v1/ledger/distribute", s.handleDistribute)

	return RequestIDMiddleware(s.log)(mux)
}

func (s *Server) route(mux *http.ServeMux, method, pattern string, handler http.HandlerFunc) {
	var h http.Handler = handler
	h = TracingMiddleware(pattern)(h)
	h = s.metrics.InstrumentHandler(pattern, h)
	mux.Handle(method+" "+pattern, h)
}

type statusResponse struct {
	Running     bool      `json:"running"`
	StepCount   int       `json:"step_count"`
	SimTime     time.Time `json:"sim_time"`
	Seed        int64     `json:"seed"`
	Regions     []string  `json:"regions"`
	TickSeconds float64   `json:"tick_seconds"`
}

type logsResponse struct {
	Lines []string `json:"lines"`
}

type regionsResponse struct {
	Regions []model.RegionStatus `json:"regions"`
}

type eventsResponse struct {
	Category string   `json:"category"`
	Events   []string `json:"events"`
}

type transactionsResponse struct {
	Transactions []model.Transaction `json:"transactions"`
}

type runResponse struct {
	Running bool `json:"running"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	cfg := s.session.Config()

	running := false
	if s.loop != nil {
		running = s.loop.Running()
	}

	s.writeJSON(r.Context(), w, http.StatusOK, statusResponse{
		Running:     running,
		StepCount:   snap.StepCount,
		SimTime:     snap.SimTime,
		Seed:        s.session.Seed(),
		Regions:     cfg.Regions,
		TickSeconds: cfg.TickInterval.Seconds(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	n, err := queryCount(r, "n")
	if err != nil {
		s.writeErrorStatus(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, logsResponse{Lines: s.session.RecentLogs(n)})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	s.writeJSON(r.Context(), w, http.StatusOK, regionsResponse{Regions: snap.Regions})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	n, err := queryCount(r, "n")
	if err != nil {
		s.writeErrorStatus(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	category := sim.EventCategory(r.PathValue("category"))
	events, err := s.session.Events(category, n)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, eventsResponse{
		Category: string(category),
		Events:   events,
	})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, s.session.Projection())
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(r.Context(), w, http.StatusOK, transactionsResponse{
		Transactions: s.session.Transactions(),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.loop == nil {
		s.writeError(ctx, w, ErrLoopUnavailable)
		return
	}
	if err := s.loop.Start(); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.logger(ctx).Info(ctx, "simulation started")
	s.writeJSON(ctx, w, http.StatusOK, runResponse{Running: true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.loop == nil {
		s.writeError(ctx, w, ErrLoopUnavailable)
		return
	}
	if err := s.loop.Stop(); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.logger(ctx).Info(ctx, "simulation stopped")
	s.writeJSON(ctx, w, http.StatusOK, runResponse{Running: false})
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.ledger == nil {
		s.writeError(ctx, w, ErrLedgerUnavailable)
		return
	}

	proj := s.session.Projection()
	snap := s.session.Snapshot()

	ctx, span := StartChildSpan(ctx, "ledger.distribute",
		attribute.Float64("bcp_units", proj.BCPUnits),
		attribute.Float64("btc_equivalent", proj.BTCEquivalent),
	)
	defer span.End()

	tx, err := s.ledger.Distribute(ctx, proj, snap.TotalEnergyMWh, snap.OilBarrels)
	if err != nil {
		span.RecordError(err)
		s.writeError(ctx, w, err)
		return
	}

	s.session.RecordTransaction(ctx, tx)
	s.metrics.IncTransactions()
	s.logger(ctx).Info(ctx, "distribution settled",
		logging.String("tx_id", tx.ID),
		logging.Float64("bcp_units", tx.BCPUnits))
	s.writeJSON(ctx, w, http.StatusOK, tx)
}

// logger prefers the request-scoped logger placed on the context by
// RequestIDMiddleware, which carries request_id, method, and path.
func (s *Server) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn(ctx, "encoding response failed", logging.String("error", err.Error()))
	}
}

func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	s.writeErrorStatus(ctx, w, ToHTTPStatus(err), err)
}

func (s *Server) writeErrorStatus(ctx context.Context, w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger(ctx).Error(ctx, "request failed", logging.String("error", err.Error()))
	}
	s.writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}

func queryCount(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer: %w", key, err)
	}
	return n, nil
}
