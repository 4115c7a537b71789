package main

import (
	"errors"
	"testing"
	"time"

	"github.com/epochworks/worldgrid-simulator/core"
	"github.com/epochworks/worldgrid-simulator/internal/api"
	"github.com/epochworks/worldgrid-simulator/internal/logging"
	sim "github.com/epochworks/worldgrid-simulator/internal/sim/state"
)

func newTestLoop(t *testing.T) (*tickLoop, *sim.Session) {
	t.Helper()

	eng, err := core.NewEngine(core.DefaultConfig(), core.NewRand(1))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	session := sim.NewSession(eng, logging.Noop())
	return newTickLoop(session, time.Millisecond), session
}

func waitForSteps(t *testing.T, session *sim.Session, min int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for session.Snapshot().StepCount < min {
		if time.Now().After(deadline) {
			t.Fatalf("session did not reach %d steps in time", min)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestTickLoopStartStop(t *testing.T) {
	loop, session := newTestLoop(t)

	if loop.Running() {
		t.Fatal("loop running before start")
	}
	if err := loop.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := loop.Start(); !errors.Is(err, api.ErrLoopRunning) {
		t.Fatalf("second Start error = %v, want ErrLoopRunning", err)
	}

	waitForSteps(t, session, 1)

	if err := loop.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if loop.Running() {
		t.Fatal("loop still running after Stop")
	}
	if err := loop.Stop(); !errors.Is(err, api.ErrLoopStopped) {
		t.Fatalf("second Stop error = %v, want ErrLoopStopped", err)
	}

	steps := session.Snapshot().StepCount
	time.Sleep(20 * time.Millisecond)
	if got := session.Snapshot().StepCount; got != steps {
		t.Fatalf("StepCount advanced from %d to %d after Stop", steps, got)
	}
}

func TestTickLoopRestartKeepsAccumulating(t *testing.T) {
	loop, session := newTestLoop(t)

	if err := loop.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForSteps(t, session, 2)
	if err := loop.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	paused := session.Snapshot()

	if err := loop.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	waitForSteps(t, session, paused.StepCount+2)
	if err := loop.Stop(); err != nil {
		t.Fatalf("Stop after restart: %v", err)
	}

	resumed := session.Snapshot()
	if resumed.StepCount <= paused.StepCount {
		t.Fatalf("StepCount = %d, want past the paused %d", resumed.StepCount, paused.StepCount)
	}
	if resumed.TotalEnergyMWh <= paused.TotalEnergyMWh {
		t.Fatalf("TotalEnergyMWh = %v, want past the paused %v", resumed.TotalEnergyMWh, paused.TotalEnergyMWh)
	}
}
