// Command simulator runs an Epoch Zero session in the terminal: it loads
// a scenario, drives the tick loop for a fixed duration, prints the
// operational feed, and optionally exports telemetry and a settlement.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/epochworks/worldgrid-simulator/core"
	"github.com/epochworks/worldgrid-simulator/internal/config"
	"github.com/epochworks/worldgrid-simulator/internal/export"
	"github.com/epochworks/worldgrid-simulator/internal/ledger"
	"github.com/epochworks/worldgrid-simulator/internal/logging"
	sim "github.com/epochworks/worldgrid-simulator/internal/sim/state"
	"github.com/epochworks/worldgrid-simulator/timectrl"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario YAML file (empty uses built-in defaults)")
	duration := flag.Duration("duration", 60*time.Second, "total simulation duration in simulation time")
	seed := flag.Int64("seed", 0, "random seed override; 0 keeps the scenario's seed")
	accelerated := flag.Bool("accelerated", false, "run ticks as fast as possible instead of real time")
	outDir := flag.String("out", "", "telemetry output directory override; empty follows the scenario's export settings")
	distribute := flag.Bool("distribute", false, "settle the projected BCP distribution when the run ends")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

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

	session := sim.NewSession(eng, log)

	// Wallet preparation mirrors a real settlement client's startup even
	// though the simulated ledger never touches a chain.
	led := ledger.NewSimulated(log, ledger.WithIDSource(rng))
	for _, step := range []func(context.Context) error{led.EnsureWallet, led.FundWallet, led.WarmUp} {
		if err := step(ctx); err != nil {
			log.Warn(ctx, "wallet preparation step failed", logging.String("error", err.Error()))
		}
	}

	dir := *outDir
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
	}

	// The tick feed owns stdout; structured logs go to stderr.
	session.Subscribe(func(ev sim.TickEvent) {
		for _, line := range ev.Lines {
			fmt.Println(line)
		}
	})
	if writer != nil {
		session.Subscribe(func(ev sim.TickEvent) {
			if err := writer.RecordTick(ev); err != nil {
				log.Warn(ctx, "failed to record tick", logging.String("error", err.Error()))
			}
		})
	}

	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(time.Now().UTC(), cfg.TickInterval(), mode)
	tc.AddListener(func(simTime time.Time) {
		session.RunTick(simTime)
	})

	log.Info(ctx, "starting simulation",
		logging.String("scenario", cfg.Scenario.Name),
		logging.Int("regions", len(cfg.Scenario.Regions)),
		logging.String("duration", duration.String()),
		logging.String("tick", cfg.TickInterval().String()),
		logging.Any("seed", eng.Seed()),
	)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	done := tc.Start(*duration)
	select {
	case <-done:
	case <-stopCtx.Done():
		log.Info(ctx, "interrupt received; stopping simulation")
		tc.Stop()
		<-done
	}

	snap := session.Snapshot()
	proj := session.Projection()

	fmt.Printf("Simulation complete: %s steps, %s MWh generated, %d anomalies quarantined.\n",
		humanize.Comma(int64(snap.StepCount)),
		humanize.CommafWithDigits(snap.TotalEnergyMWh, 6),
		snap.AnomalyCount,
	)
	fmt.Printf("Resources located: %s gold units, %s barrels of oil, %d nuclear signatures.\n",
		humanize.CommafWithDigits(snap.GoldUnits, 6),
		humanize.CommafWithDigits(snap.OilBarrels, 6),
		snap.NuclearSignatures,
	)
	fmt.Printf("Projected settlement: %.6f BCP (%.8f BTC) to %s\n",
		proj.BCPUnits, proj.BTCEquivalent, proj.Recipient)

	if *distribute {
		tx, err := led.Distribute(ctx, proj, snap.TotalEnergyMWh, snap.OilBarrels)
		if err != nil {
			log.Error(ctx, "distribution failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		session.RecordTransaction(ctx, tx)
		fmt.Println(tx.Note)
	}

	if writer != nil {
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
			Projection:        proj,
			Transactions:      session.Transactions(),
		}
		if err := writer.WriteSummary(summary); err != nil {
			log.Warn(ctx, "failed to write summary", logging.String("error", err.Error()))
		} else {
			log.Info(ctx, "telemetry exported", logging.String("dir", writer.Dir()))
		}
	}
}
