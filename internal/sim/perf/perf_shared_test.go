//go:build perf || perf_large

package perf

import (
	"fmt"
	"testing"
	"time"

	"github.com/epochworks/worldgrid-simulator/core"
	"github.com/epochworks/worldgrid-simulator/internal/logging"
	sim "github.com/epochworks/worldgrid-simulator/internal/sim/state"
)

type perfConfig struct {
	Regions int
	Ticks   int
	Reads   int
}

func benchmarkTicks(b *testing.B, cfg perfConfig) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		session := newSession(b, cfg.Regions, int64(i))

		b.ResetTimer()
		base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		for j := 0; j < cfg.Ticks; j++ {
			session.RunTick(base.Add(time.Duration(j) * time.Second))
		}
		b.StopTimer()
	}
}

func benchmarkSnapshots(b *testing.B, cfg perfConfig) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		session := newSession(b, cfg.Regions, int64(i))
		base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		for j := 0; j < cfg.Ticks; j++ {
			session.RunTick(base.Add(time.Duration(j) * time.Second))
		}

		b.ResetTimer()
		for j := 0; j < cfg.Reads; j++ {
			snap := session.Snapshot()
			if snap.StepCount != cfg.Ticks {
				b.Fatalf("Snapshot step count = %d, want %d", snap.StepCount, cfg.Ticks)
			}
		}
		b.StopTimer()
	}
}

func benchmarkEventFeeds(b *testing.B, cfg perfConfig) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		session := newSession(b, cfg.Regions, int64(i))
		base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		for j := 0; j < cfg.Ticks; j++ {
			session.RunTick(base.Add(time.Duration(j) * time.Second))
		}

		b.ResetTimer()
		for j := 0; j < cfg.Reads; j++ {
			events, err := session.Events(sim.CategorySupplyChain, 0)
			if err != nil {
				b.Fatalf("Events: %v", err)
			}
			if len(events) != cfg.Ticks*cfg.Regions {
				b.Fatalf("feed length = %d, want %d", len(events), cfg.Ticks*cfg.Regions)
			}
		}
		b.StopTimer()
	}
}

func newSession(b *testing.B, regions int, seed int64) *sim.Session {
	b.Helper()

	cfg := core.DefaultConfig()
	cfg.Regions = make([]string, 0, regions)
	for j := 0; j < regions; j++ {
		cfg.Regions = append(cfg.Regions, fmt.Sprintf("Region-%03d", j))
	}

	eng, err := core.NewEngine(cfg, core.NewRand(seed))
	if err != nil {
		b.Fatalf("NewEngine: %v", err)
	}
	return sim.NewSession(eng, logging.Noop())
}
