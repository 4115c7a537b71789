package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	medicalShipments = []string{"antivirals", "antibiotics", "vaccines"}

	orbitalFindings = []string{
		"Gold Vein Located",
		"Tectonic Stress Point Detected",
		"Uranium Trace Signature",
		"No Anomaly",
	}
)

const (
	maxGoldUnitsPerMinute  = 0.002
	maxOilBarrelsPerMinute = 0.003

	minWaterLitres = 10000
	maxWaterLitres = 20000

	minSovereignSeed = 1000
	maxSovereignSeed = 9999
	minReputation    = 0.5
	maxReputation    = 1.0
)

// SearchForGold returns the gold units uncovered over one tick interval.
// Yield scales linearly with interval length.
func (e *Engine) SearchForGold(interval time.Duration) float64 {
	return round6(e.rng.Uniform(0, maxGoldUnitsPerMinute) * interval.Minutes())
}

// SearchForOil returns the oil barrels located over one tick interval.
func (e *Engine) SearchForOil(interval time.Duration) float64 {
	return round6(e.rng.Uniform(0, maxOilBarrelsPerMinute) * interval.Minutes())
}

// ScanForNuclearSignatures reports how many signatures the tick's sweep
// detected, zero or one.
func (e *Engine) ScanForNuclearSignatures() int {
	return e.rng.CoinFlip()
}

// SimulateSupplyChain returns the tick's delivery event for a region.
func (e *Engine) SimulateSupplyChain(region string) string {
	water := e.rng.IntBetween(minWaterLitres, maxWaterLitres)
	meds := e.rng.Pick(medicalShipments)
	return fmt.Sprintf("[SUPPLY_CHAIN] Delivered %dL water + %s to %s", water, meds, region)
}

// SimulateOrbitalScan returns the tick's scan event for a region. When a
// survey satellite is configured its subpoint at simTime annotates the
// finding.
func (e *Engine) SimulateOrbitalScan(region string, simTime time.Time) string {
	findings := e.rng.Pick(orbitalFindings)
	suffix := ""
	if e.surveyor != nil {
		suffix = e.surveyor.Annotate(simTime)
	}
	return fmt.Sprintf("[ORBITAL SCAN] Satellite scan of %s: %s%s", region, findings, suffix)
}

// RegisterSovereignID mints a new identity event for a region. The
// identity token embeds the first two letters of the region name.
func (e *Engine) RegisterSovereignID(region string) string {
	prefix := region
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	id := fmt.Sprintf("SEED_%d_%s", e.rng.IntBetween(minSovereignSeed, maxSovereignSeed), strings.ToUpper(prefix))
	rep := round2(e.rng.Uniform(minReputation, maxReputation))
	return fmt.Sprintf("[SOVEREIGN ID] %s active in %s (rep: %s)", id, region, formatScore(rep))
}

// formatScore renders a reputation score without trailing zeros.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
