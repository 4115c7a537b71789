package main

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/epochworks/worldgrid-simulator/core"
	"github.com/epochworks/worldgrid-simulator/internal/config"
	"github.com/epochworks/worldgrid-simulator/internal/logging"
	sim "github.com/epochworks/worldgrid-simulator/internal/sim/state"
	"github.com/epochworks/worldgrid-simulator/timectrl"
)

// TestIntegration_TickLoopDrivesSession runs a tiny end-to-end-style simulation.
func TestIntegration_TickLoopDrivesSession(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Scenario.Seed = 42

	eng, err := core.NewEngine(cfg.EngineConfig(), core.NewRand(cfg.Scenario.Seed))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	session := sim.NewSession(eng, logging.Noop())

	var mu sync.Mutex
	var lines []string
	session.Subscribe(func(ev sim.TickEvent) {
		mu.Lock()
		lines = append(lines, ev.Lines...)
		mu.Unlock()
	})

	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	tc := timectrl.NewTimeController(start, cfg.TickInterval(), timectrl.Accelerated)
	tc.AddListener(func(simTime time.Time) {
		session.RunTick(simTime)
	})

	<-tc.Start(5 * time.Second)

	snap := session.Snapshot()
	if snap.StepCount != 5 {
		t.Fatalf("StepCount = %d, want 5", snap.StepCount)
	}
	if !snap.SimTime.Equal(start.Add(5 * time.Second)) {
		t.Fatalf("SimTime = %v, want %v", snap.SimTime, start.Add(5*time.Second))
	}
	if snap.TotalEnergyMWh <= 0 {
		t.Fatalf("TotalEnergyMWh = %v, want > 0", snap.TotalEnergyMWh)
	}

	mu.Lock()
	defer mu.Unlock()

	// Every tick feeds one energy line, one distribution line per region,
	// three regional event lines per region, and three resource lines.
	regions := len(cfg.Scenario.Regions)
	wantLines := 5*(1+regions+3*regions+3) + snap.AnomalyCount
	if len(lines) != wantLines {
		t.Fatalf("feed lines = %d, want %d", len(lines), wantLines)
	}
	if !strings.Contains(lines[0], "[ENERGY] Generated ") {
		t.Fatalf("first feed line = %q, want an energy report", lines[0])
	}
}
