package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles the Prometheus metrics for one simulator process:
// session gauges driven by the tick loop and request metrics for the HTTP
// API surface.
type SimCollector struct {
	gatherer prometheus.Gatherer

	APIRequests  *prometheus.CounterVec
	APIDurations *prometheus.HistogramVec

	StepCount         prometheus.Gauge
	TickEnergyMWh     prometheus.Gauge
	TotalEnergyMWh    prometheus.Gauge
	GoldUnits         prometheus.Gauge
	OilBarrels        prometheus.Gauge
	NuclearSignatures prometheus.Gauge

	RegionBalance *prometheus.GaugeVec
	PanelHealth   *prometheus.GaugeVec

	Anomalies    prometheus.Counter
	Transactions prometheus.Counter
	TickDuration prometheus.Histogram
}

// NewSimCollector registers the simulator's Prometheus metrics against the
// provided registerer, defaulting to the global registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total number of handled API requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "api_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "api_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	c := &SimCollector{
		gatherer:     gatherer,
		APIRequests:  requests,
		APIDurations: durations,
	}

	gauges := []struct {
		target *prometheus.Gauge
		name   string
		help   string
	}{
		{&c.StepCount, "sim_step_count", "Ticks executed in the current session."},
		{&c.TickEnergyMWh, "sim_tick_energy_mwh", "Energy generated by the most recent tick."},
		{&c.TotalEnergyMWh, "sim_total_energy_mwh", "Cumulative energy generated this session."},
		{&c.GoldUnits, "sim_gold_units", "Cumulative gold units located."},
		{&c.OilBarrels, "sim_oil_barrels", "Cumulative oil barrels located."},
		{&c.NuclearSignatures, "sim_nuclear_signatures", "Cumulative nuclear signatures detected."},
	}
	for _, g := range gauges {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}), g.name)
		if err != nil {
			return nil, err
		}
		*g.target = gauge
	}

	c.RegionBalance, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_region_balance_mwh",
		Help: "Distribution node balance per region.",
	}, []string{"region"}), "sim_region_balance_mwh")
	if err != nil {
		return nil, err
	}
	c.PanelHealth, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_panel_health_pct",
		Help: "Solar panel health per region.",
	}, []string{"region"}), "sim_panel_health_pct")
	if err != nil {
		return nil, err
	}

	c.Anomalies, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_anomalies_total",
		Help: "Threats detected and quarantined by the integrity monitor.",
	}), "sim_anomalies_total")
	if err != nil {
		return nil, err
	}
	c.Transactions, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Simulated ledger distributions settled.",
	}), "ledger_transactions_total")
	if err != nil {
		return nil, err
	}

	c.TickDuration, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Wall time spent executing one simulation tick.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	}), "sim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return c, nil
}

// InstrumentHandler records request counts and durations for an HTTP route.
func (c *SimCollector) InstrumentHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		code := strconv.Itoa(rec.status)
		if c.APIRequests != nil {
			c.APIRequests.WithLabelValues(route, r.Method, code).Inc()
		}
		if c.APIDurations != nil {
			c.APIDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

// statusRecorder captures the response code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// The Set/Add/Observe methods below satisfy the session's MetricsRecorder
// interface so the tick loop can drive gauges without importing this
// package.

// SetStepCount records the tick counter.
func (c *SimCollector) SetStepCount(steps int) {
	if c == nil || c.StepCount == nil {
		return
	}
	c.StepCount.Set(float64(steps))
}

// SetTickEnergy records the most recent tick's generation.
func (c *SimCollector) SetTickEnergy(mwh float64) {
	if c == nil || c.TickEnergyMWh == nil {
		return
	}
	c.TickEnergyMWh.Set(mwh)
}

// SetResourceTotals records the session's cumulative resource totals.
func (c *SimCollector) SetResourceTotals(totalEnergyMWh, goldUnits, oilBarrels float64, nuclearSignatures int) {
	if c == nil {
		return
	}
	if c.TotalEnergyMWh != nil {
		c.TotalEnergyMWh.Set(totalEnergyMWh)
	}
	if c.GoldUnits != nil {
		c.GoldUnits.Set(goldUnits)
	}
	if c.OilBarrels != nil {
		c.OilBarrels.Set(oilBarrels)
	}
	if c.NuclearSignatures != nil {
		c.NuclearSignatures.Set(float64(nuclearSignatures))
	}
}

// SetRegionBalance records one region's distribution balance.
func (c *SimCollector) SetRegionBalance(region string, balanceMWh float64) {
	if c == nil || c.RegionBalance == nil {
		return
	}
	c.RegionBalance.WithLabelValues(region).Set(balanceMWh)
}

// SetPanelHealth records one region's panel health.
func (c *SimCollector) SetPanelHealth(region string, healthPct float64) {
	if c == nil || c.PanelHealth == nil {
		return
	}
	c.PanelHealth.WithLabelValues(region).Set(healthPct)
}

// AddAnomalies counts quarantined threats.
func (c *SimCollector) AddAnomalies(n int) {
	if c == nil || c.Anomalies == nil {
		return
	}
	c.Anomalies.Add(float64(n))
}

// ObserveTickSeconds records one tick's wall time.
func (c *SimCollector) ObserveTickSeconds(seconds float64) {
	if c == nil || c.TickDuration == nil {
		return
	}
	c.TickDuration.Observe(seconds)
}

// IncTransactions counts one settled ledger distribution.
func (c *SimCollector) IncTransactions() {
	if c == nil || c.Transactions == nil {
		return
	}
	c.Transactions.Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
