// Command dashboard-server exposes a live Epoch Zero session over HTTP:
// JSON endpoints for dashboards and operators, Prometheus metrics on a
// separate listener, and optional OpenTelemetry tracing.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/epochworks/worldgrid-simulator/core"
	"github.com/epochworks/worldgrid-simulator/internal/api"
	"github.com/epochworks/worldgrid-simulator/internal/config"
	"github.com/epochworks/worldgrid-simulator/internal/export"
	"github.com/epochworks/worldgrid-simulator/internal/ledger"
	"github.com/epochworks/worldgrid-simulator/internal/logging"
	"github.com/epochworks/worldgrid-simulator/internal/observability"
	sim "github.com/epochworks/worldgrid-simulator/internal/sim/state"
	"github.com/epochworks/worldgrid-simulator/timectrl"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/epochworks/worldgrid-simulator/cmd/dashboard-server"

// serverEnv carries the listener and scenario overrides honoured before
// flag parsing; flags win when both are set.
type serverEnv struct {
	Addr        string `env:"SIM_API_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"SIM_METRICS_ADDR" envDefault:":9090"`
	Scenario    string `env:"SIM_SCENARIO"`
	Seed        int64  `env:"SIM_SEED"`
	ExportDir   string `env:"SIM_EXPORT_DIR"`
}

func main() {
	log := logging.NewFromEnv()
	ctx := context.Background()

	var envCfg serverEnv
	if err := config.ParseEnv(&envCfg); err != nil {
		log.Error(ctx, "failed to parse environment", logging.String("error", err.Error()))
		os.Exit(1)
	}

	addr := flag.String("addr", envCfg.Addr, "TCP address the dashboard API listens on")
	metricsAddr := flag.String("metrics-addr", envCfg.MetricsAddr, "HTTP address for Prometheus /metrics")
	scenarioPath := flag.String("scenario", envCfg.Scenario, "path to a scenario YAML file (empty uses built-in defaults)")
	seed := flag.Int64("seed", envCfg.Seed, "random seed override; 0 keeps the scenario's seed")
	exportDir := flag.String("export-dir", envCfg.ExportDir, "telemetry output directory override; empty follows the scenario's export settings")
	flag.Parse()

	tracingShutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), tracingShutdown, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	cfg, err := config.Load(*scenarioPath)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Scenario.Seed = *seed
	}

	rng := core.NewRand(cfg.Scenario.Seed)

	var engineOpts []core.EngineOption
	if surveyor := cfg.Surveyor(); surveyor != nil {
		engineOpts = append(engineOpts, core.WithOrbitalSurveyor(surveyor))
	}

	eng, err := core.NewEngine(cfg.EngineConfig(), rng, engineOpts...)
	if err != nil {
		log.Error(ctx, "failed to build engine", logging.String("error", err.Error()))
		os.Exit(1)
	}

	session := sim.NewSession(eng, log, sim.WithMetricsRecorder(collector))

	led := ledger.NewSimulated(log, ledger.WithIDSource(rng))
	for _, step := range []func(context.Context) error{led.EnsureWallet, led.FundWallet, led.WarmUp} {
		if err := step(ctx); err != nil {
			log.Warn(ctx, "wallet preparation step failed", logging.String("error", err.Error()))
		}
	}

	dir := *exportDir
	if dir == "" && cfg.Export.Enabled {
		dir = cfg.Export.Dir
	}
	writer, err := export.NewWriter(dir)
	if err != nil {
		log.Error(ctx, "failed to open telemetry output", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if writer != nil {
		defer writer.Close()
		if err := writer.WriteScenario(cfg); err != nil {
			log.Warn(ctx, "failed to record scenario", logging.String("error", err.Error()))
		}
		session.Subscribe(func(ev sim.TickEvent) {
			if err := writer.RecordTick(ev); err != nil {
				log.Warn(ctx, "failed to record tick", logging.String("error", err.Error()))
			}
		})
	}

	loop := newTickLoop(session, cfg.TickInterval())

	apiSrv := api.NewServer(session, loop, led, collector, log)
	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: apiSrv.Handler(),
	}

	log.Info(ctx, "starting dashboard API",
		logging.String("addr", *addr),
		logging.String("scenario", cfg.Scenario.Name),
		logging.Any("seed", eng.Seed()),
	)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "dashboard API exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down dashboard server")
	if err := loop.Stop(); err != nil && !errors.Is(err, api.ErrLoopStopped) {
		log.Warn(ctx, "stopping tick loop", logging.String("error", err.Error()))
	}

	if writer != nil {
		snap := session.Snapshot()
		summary := export.Summary{
			Scenario:          cfg.Scenario.Name,
			Seed:              eng.Seed(),
			Steps:             snap.StepCount,
			SimTime:           snap.SimTime,
			TotalEnergyMWh:    snap.TotalEnergyMWh,
			GoldUnits:         snap.GoldUnits,
			OilBarrels:        snap.OilBarrels,
			NuclearSignatures: snap.NuclearSignatures,
			AnomalyCount:      snap.AnomalyCount,
			Regions:           snap.Regions,
			Projection:        session.Projection(),
			Transactions:      session.Transactions(),
		}
		if err := writer.WriteSummary(summary); err != nil {
			log.Warn(ctx, "failed to write summary", logging.String("error", err.Error()))
		} else {
			log.Info(ctx, "telemetry exported", logging.String("dir", writer.Dir()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "dashboard API shutdown failed", logging.String("error", err.Error()))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// tickLoop adapts a TimeController to the API's loop controller. Start
// re-aims the clock at the current wall time so a resumed session stamps
// fresh timestamps rather than replaying the pause interval.
type tickLoop struct {
	mu   sync.Mutex
	tc   *timectrl.TimeController
	done <-chan struct{}
}

func newTickLoop(session *sim.Session, tick time.Duration) *tickLoop {
	tracer := otel.Tracer(tracerName)
	tc := timectrl.NewTimeController(time.Now().UTC(), tick, timectrl.RealTime)
	tc.AddListener(func(simTime time.Time) {
		_, span := tracer.Start(context.Background(), "sim.tick")
		ev := session.RunTick(simTime)
		span.SetAttributes(
			attribute.Int("sim.step", ev.Step),
			attribute.Bool("sim.anomaly", ev.AnomalyDetected),
		)
		span.End()
	})
	return &tickLoop{tc: tc}
}

func (l *tickLoop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return api.ErrLoopRunning
	}
	l.tc.SetTime(time.Now().UTC())
	l.done = l.tc.Start(0)
	return nil
}

func (l *tickLoop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done == nil {
		return api.ErrLoopStopped
	}
	l.tc.Stop()
	<-l.done
	l.done = nil
	return nil
}

func (l *tickLoop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done != nil
}
