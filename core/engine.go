package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/epochworks/worldgrid-simulator/model"
)

// Configuration sentinels surfaced at engine construction. Tick paths
// never validate: a constructed engine cannot fail mid-step.
var (
	ErrNoRegions       = errors.New("configuration invalid: empty region set")
	ErrBadTickInterval = errors.New("configuration invalid: tick interval must be positive")
	ErrBadAssetPrice   = errors.New("configuration invalid: asset price must be positive")
)

// Default scenario parameters.
const (
	DefaultTickInterval    = time.Second
	DefaultAssetRatePerMWh = 0.05
	DefaultAssetRatePerOil = 0.01
	DefaultAssetPriceUSD   = 30000.0
	DefaultRecipient       = "bcrt1qtc0jfat4wdu5wsa5xump6n4gqsn9kh32kgf9ee"
)

// DefaultRegions is the grid layout used when a scenario does not name
// its own.
func DefaultRegions() []string {
	return []string{"RegionAlpha", "RegionBeta", "RegionGamma"}
}

// Config carries the scenario parameters one session runs under.
type Config struct {
	Regions      []string
	TickInterval time.Duration
	LogCapacity  int

	// Asset projection coefficients. Units accrue from generated
	// energy and located oil; BTCEquivalent divides by the price.
	Recipient       string
	AssetRatePerMWh float64
	AssetRatePerOil float64
	AssetPriceUSD   float64
}

// DefaultConfig returns the stock three-region scenario.
func DefaultConfig() Config {
	return Config{
		Regions:         DefaultRegions(),
		TickInterval:    DefaultTickInterval,
		LogCapacity:     DefaultLogCapacity,
		Recipient:       DefaultRecipient,
		AssetRatePerMWh: DefaultAssetRatePerMWh,
		AssetRatePerOil: DefaultAssetRatePerOil,
		AssetPriceUSD:   DefaultAssetPriceUSD,
	}
}

// Validate rejects configurations no session could run under.
func (c Config) Validate() error {
	if len(c.Regions) == 0 {
		return ErrNoRegions
	}
	if c.TickInterval <= 0 {
		return ErrBadTickInterval
	}
	if c.AssetPriceUSD <= 0 {
		return ErrBadAssetPrice
	}
	return nil
}

// EngineOption customises Engine construction.
type EngineOption func(*Engine)

// WithOrbitalSurveyor attaches a survey satellite whose subpoint
// annotates orbital scan events.
func WithOrbitalSurveyor(s *OrbitalSurveyor) EngineOption {
	return func(e *Engine) { e.surveyor = s }
}

// Engine advances a SimulationState one tick at a time. It owns the
// scenario configuration and the random source but no session state;
// callers thread state through Step explicitly.
type Engine struct {
	cfg      Config
	rng      *Rand
	surveyor *OrbitalSurveyor
}

// NewEngine validates the configuration and returns a step runner. A nil
// rng gets a time-seeded source.
func NewEngine(cfg Config, rng *Rand, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if rng == nil {
		rng = NewRand(0)
	}
	e := &Engine{cfg: cfg, rng: rng}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Config returns the engine's scenario configuration.
func (e *Engine) Config() Config { return e.cfg }

// Seed returns the seed of the engine's random source.
func (e *Engine) Seed() int64 { return e.rng.Seed() }

// Step advances the session by one tick ending at now. The state is
// mutated in place and may start empty: node controllers, the integrity
// monitor, and the log ring are created on first use. Step never fails;
// all validation happens at construction.
func (e *Engine) Step(st *SimulationState, now time.Time, interval time.Duration) {
	e.ensureWorld(st)

	st.StepCount++
	st.SimTime = now

	// Generation. Every region's array produces, the grid sums.
	tickEnergy := 0.0
	for i, node := range st.SolarNodes {
		reading := node.GenerateEnergy(interval)
		st.LastReadings[i] = reading
		tickEnergy += reading.OutputMWh
	}
	st.TickEnergyMWh = tickEnergy
	st.TotalEnergyMWh += tickEnergy
	st.appendLog(now, fmt.Sprintf("[ENERGY] Generated %.6f MWh.", tickEnergy))

	// Distribution. Equal shares accumulate per region.
	for _, node := range st.DistributionNodes {
		balance := node.BalanceAndDistribute(tickEnergy)
		st.appendLog(now, fmt.Sprintf("[DISTRIBUTION] %s current balance %.6f MWh.", node.Region, balance))
	}

	// Regional events.
	for _, region := range e.cfg.Regions {
		delivery := e.SimulateSupplyChain(region)
		st.SupplyChain = append(st.SupplyChain, stamp(now, delivery))
		st.appendLog(now, delivery)

		scan := e.SimulateOrbitalScan(region, now)
		st.OrbitalScans = append(st.OrbitalScans, stamp(now, scan))
		st.appendLog(now, scan)

		identity := e.RegisterSovereignID(region)
		st.SovereignIDs = append(st.SovereignIDs, stamp(now, identity))
		st.appendLog(now, identity)
	}

	// Sovereignty protocol sweep.
	if st.Integrity.MonitorGridIntegrity() {
		alert := stamp(now, "[ASP ALERT] Threat Quarantined")
		st.Anomalies = append(st.Anomalies, alert)
		st.RecentLogs.Append(alert)
	}

	// Resource searches. Totals update before each event is logged.
	gold := e.SearchForGold(interval)
	st.GoldUnits += gold
	st.appendLog(now, fmt.Sprintf("[GOLD SEARCH] Found %.6f units of gold. Total: %.6f", gold, st.GoldUnits))

	oil := e.SearchForOil(interval)
	st.OilBarrels += oil
	st.appendLog(now, fmt.Sprintf("[OIL SEARCH] Found %.6f barrels of oil. Total: %.6f", oil, st.OilBarrels))

	nuclear := e.ScanForNuclearSignatures()
	st.NuclearSignatures += nuclear
	st.appendLog(now, fmt.Sprintf("[NUCLEAR SCAN] Detected %d nuclear signatures. Total: %d", nuclear, st.NuclearSignatures))
}

// ensureWorld lazily creates the per-region node objects, the integrity
// monitor, and the log ring on the first step of a session.
func (e *Engine) ensureWorld(st *SimulationState) {
	if st.RecentLogs == nil {
		st.RecentLogs = NewLogRing(e.cfg.LogCapacity)
	}
	if len(st.SolarNodes) == 0 {
		st.SolarNodes = make([]*SolarNodeController, 0, len(e.cfg.Regions))
		for _, region := range e.cfg.Regions {
			st.SolarNodes = append(st.SolarNodes, NewSolarNodeController(region, e.rng))
		}
	}
	if len(st.DistributionNodes) == 0 {
		st.DistributionNodes = make([]*DistributionNode, 0, len(e.cfg.Regions))
		for _, region := range e.cfg.Regions {
			st.DistributionNodes = append(st.DistributionNodes, NewDistributionNode(region, len(e.cfg.Regions)))
		}
	}
	if st.Integrity == nil {
		st.Integrity = NewIntegrityMonitor(e.rng)
	}
	if len(st.LastReadings) != len(st.SolarNodes) {
		st.LastReadings = make([]model.SolarPanelReading, len(st.SolarNodes))
	}
}
