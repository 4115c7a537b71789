// Package state layers concurrency-safe session access over the
// single-threaded simulation core. One Session owns one engine and its
// state; display surfaces read through snapshots and bounded tails.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/epochworks/worldgrid-simulator/core"
	"github.com/epochworks/worldgrid-simulator/internal/logging"
	"github.com/epochworks/worldgrid-simulator/model"
)

// ErrUnknownCategory indicates an event feed name that the session does
// not keep.
var ErrUnknownCategory = errors.New("unknown event category")

// EventCategory names one of the session's append-only event feeds.
type EventCategory string

const (
	CategoryAnomalies    EventCategory = "anomalies"
	CategorySupplyChain  EventCategory = "supply_chain"
	CategoryOrbitalScans EventCategory = "orbital_scans"
	CategorySovereignIDs EventCategory = "sovereign_ids"
)

// MetricsRecorder receives gauge updates after every tick. Implementations
// must not call back into the Session.
type MetricsRecorder interface {
	SetStepCount(steps int)
	SetTickEnergy(mwh float64)
	SetResourceTotals(totalEnergyMWh, goldUnits, oilBarrels float64, nuclearSignatures int)
	SetRegionBalance(region string, balanceMWh float64)
	SetPanelHealth(region string, healthPct float64)
	AddAnomalies(n int)
	ObserveTickSeconds(seconds float64)
}

// TickEvent summarises one completed tick for subscribers.
type TickEvent struct {
	Step              int
	SimTime           time.Time
	TickEnergyMWh     float64
	TotalEnergyMWh    float64
	GoldUnits         float64
	OilBarrels        float64
	NuclearSignatures int
	AnomalyDetected   bool

	// Lines holds the operational log lines this tick appended, oldest
	// first. Regions is the post-tick per-region summary.
	Lines   []string
	Regions []model.RegionStatus
}

// Snapshot is a deep copy of the session's visible state. Callers own the
// slices and may retain them.
type Snapshot struct {
	StepCount         int                  `json:"step_count"`
	SimTime           time.Time            `json:"sim_time"`
	TickEnergyMWh     float64              `json:"tick_energy_mwh"`
	TotalEnergyMWh    float64              `json:"total_energy_mwh"`
	GoldUnits         float64              `json:"gold_units"`
	OilBarrels        float64              `json:"oil_barrels"`
	NuclearSignatures int                  `json:"nuclear_signatures"`
	ActiveThreats     int                  `json:"active_threats"`
	AnomalyCount      int                  `json:"anomaly_count"`
	Regions           []model.RegionStatus `json:"regions"`
	RecentLogs        []string             `json:"recent_logs"`
}

// Session owns one running simulation. The engine and its state are
// single-threaded by construction; the session adds the coarse lock that
// lets the tick loop, the HTTP surface, and exporters share them.
type Session struct {
	// mu is the session-level lock. RunTick holds it for writing across
	// the whole tick, so readers always observe complete ticks.
	mu sync.RWMutex

	engine *core.Engine
	sim    *core.SimulationState

	log     logging.Logger
	metrics MetricsRecorder

	subs   map[int]func(TickEvent)
	nextID int
}

// Option customises Session construction.
type Option func(*Session)

// WithMetricsRecorder attaches an optional recorder for tick gauges.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// NewSession wraps a constructed engine in an empty session. The world
// itself materialises lazily on the first tick.
func NewSession(engine *core.Engine, log logging.Logger, opts ...Option) *Session {
	if log == nil {
		log = logging.Noop()
	}
	s := &Session{
		engine: engine,
		sim:    &core.SimulationState{},
		log:    log,
		subs:   make(map[int]func(TickEvent)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Config returns the engine's scenario configuration.
func (s *Session) Config() core.Config { return s.engine.Config() }

// Seed returns the seed of the session's random source.
func (s *Session) Seed() int64 { return s.engine.Seed() }

// Subscribe registers a callback invoked after every tick, outside the
// session lock. It returns an unsubscribe function.
func (s *Session) Subscribe(fn func(TickEvent)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// RunTick advances the simulation by one tick ending at now, updates
// metrics, and notifies subscribers. Subscribers run outside the lock.
func (s *Session) RunTick(now time.Time) TickEvent {
	s.mu.Lock()

	linesBefore := 0
	if s.sim.RecentLogs != nil {
		linesBefore = s.sim.RecentLogs.Appended()
	}
	anomaliesBefore := len(s.sim.Anomalies)

	started := time.Now()
	s.engine.Step(s.sim, now, s.engine.Config().TickInterval)
	elapsed := time.Since(started)

	ev := TickEvent{
		Step:              s.sim.StepCount,
		SimTime:           s.sim.SimTime,
		TickEnergyMWh:     s.sim.TickEnergyMWh,
		TotalEnergyMWh:    s.sim.TotalEnergyMWh,
		GoldUnits:         s.sim.GoldUnits,
		OilBarrels:        s.sim.OilBarrels,
		NuclearSignatures: s.sim.NuclearSignatures,
		AnomalyDetected:   len(s.sim.Anomalies) > anomaliesBefore,
		Lines:             s.sim.RecentLogs.Tail(s.sim.RecentLogs.Appended() - linesBefore),
		Regions:           s.sim.RegionStatuses(),
	}
	s.updateMetricsLocked(ev, elapsed.Seconds())

	subs := make([]func(TickEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	// Notify outside the lock so subscribers may call back into the
	// session.
	for _, fn := range subs {
		fn(ev)
	}
	return ev
}

// updateMetricsLocked pushes the tick's gauges to the recorder. Callers
// hold the write lock.
func (s *Session) updateMetricsLocked(ev TickEvent, tickSeconds float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetStepCount(ev.Step)
	s.metrics.SetTickEnergy(ev.TickEnergyMWh)
	s.metrics.SetResourceTotals(ev.TotalEnergyMWh, ev.GoldUnits, ev.OilBarrels, ev.NuclearSignatures)
	for _, rs := range ev.Regions {
		s.metrics.SetRegionBalance(rs.Name, rs.BalanceMWh)
		s.metrics.SetPanelHealth(rs.Name, rs.PanelHealthPct)
	}
	if ev.AnomalyDetected {
		s.metrics.AddAnomalies(1)
	}
	s.metrics.ObserveTickSeconds(tickSeconds)
}

// Snapshot returns a coherent deep copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		StepCount:         s.sim.StepCount,
		SimTime:           s.sim.SimTime,
		TickEnergyMWh:     s.sim.TickEnergyMWh,
		TotalEnergyMWh:    s.sim.TotalEnergyMWh,
		GoldUnits:         s.sim.GoldUnits,
		OilBarrels:        s.sim.OilBarrels,
		NuclearSignatures: s.sim.NuclearSignatures,
		AnomalyCount:      len(s.sim.Anomalies),
		Regions:           s.sim.RegionStatuses(),
	}
	if s.sim.Integrity != nil {
		snap.ActiveThreats = s.sim.Integrity.ActiveThreats
	}
	if s.sim.RecentLogs != nil {
		snap.RecentLogs = s.sim.RecentLogs.Lines()
	} else {
		snap.RecentLogs = []string{}
	}
	return snap
}

// Projection computes the asset projection from the current totals.
func (s *Session) Projection() model.Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Project(s.sim.TotalEnergyMWh, s.sim.OilBarrels, s.engine.Config())
}

// Events returns the n most recent entries of the named feed, oldest
// first. Non-positive n returns the whole feed.
func (s *Session) Events(category EventCategory, n int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var feed []string
	switch category {
	case CategoryAnomalies:
		feed = s.sim.Anomalies
	case CategorySupplyChain:
		feed = s.sim.SupplyChain
	case CategoryOrbitalScans:
		feed = s.sim.OrbitalScans
	case CategorySovereignIDs:
		feed = s.sim.SovereignIDs
	default:
		return nil, ErrUnknownCategory
	}

	if n > 0 && n < len(feed) {
		feed = feed[len(feed)-n:]
	}
	out := make([]string, len(feed))
	copy(out, feed)
	return out, nil
}

// RecentLogs returns the n most recent operational log lines, oldest
// first. Non-positive n returns every retained line.
func (s *Session) RecentLogs(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sim.RecentLogs == nil {
		return []string{}
	}
	return s.sim.RecentLogs.Tail(n)
}

// RecordTransaction appends a ledger transaction to the session history.
func (s *Session) RecordTransaction(ctx context.Context, tx model.Transaction) {
	s.mu.Lock()
	s.sim.Transactions = append(s.sim.Transactions, tx)
	count := len(s.sim.Transactions)
	s.mu.Unlock()

	s.log.Info(ctx, "transaction recorded",
		logging.String("tx_id", tx.ID),
		logging.String("recipient", tx.Recipient),
		logging.Float64("btc", tx.BTCAmount),
		logging.Int("history", count))
}

// Transactions returns a copy of the session's transaction history.
func (s *Session) Transactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Transaction, len(s.sim.Transactions))
	copy(out, s.sim.Transactions)
	return out
}
