package core

import (
	"time"

	"github.com/epochworks/worldgrid-simulator/model"
)

// SimulationState is the single authoritative record of one simulation
// session. Exactly one execution context owns it per tick; the session
// layer adds locking for concurrent readers. A state fresh from
// NewSimulationState is valid input to Engine.Step, which lazily creates
// whatever is missing on first use.
type SimulationState struct {
	StepCount int
	SimTime   time.Time

	// TickEnergyMWh is the output of the most recent tick;
	// TotalEnergyMWh accumulates across the session.
	TickEnergyMWh  float64
	TotalEnergyMWh float64

	GoldUnits         float64
	OilBarrels        float64
	NuclearSignatures int

	// Category logs grow for the lifetime of the session. Only
	// RecentLogs is bounded.
	Anomalies    []string
	SupplyChain  []string
	OrbitalScans []string
	SovereignIDs []string
	Transactions []model.Transaction

	RecentLogs *LogRing

	SolarNodes        []*SolarNodeController
	DistributionNodes []*DistributionNode
	Integrity         *IntegrityMonitor

	// LastReadings holds the most recent solar sample per region, in
	// region order.
	LastReadings []model.SolarPanelReading
}

// NewSimulationState returns an empty session state with a
// default-capacity operational log.
func NewSimulationState() *SimulationState {
	return &SimulationState{RecentLogs: NewLogRing(DefaultLogCapacity)}
}

// appendLog adds a timestamped line to the bounded operational log.
func (st *SimulationState) appendLog(ts time.Time, line string) {
	st.RecentLogs.Append(stamp(ts, line))
}

// stamp prefixes a log line with the simulation clock time.
func stamp(ts time.Time, line string) string {
	return "[" + ts.Format("15:04:05") + "] " + line
}

// RegionStatuses assembles the per-region display summary in region order.
func (st *SimulationState) RegionStatuses() []model.RegionStatus {
	out := make([]model.RegionStatus, 0, len(st.DistributionNodes))
	for i, dn := range st.DistributionNodes {
		rs := model.RegionStatus{Name: dn.Region, BalanceMWh: dn.BalanceMWh}
		if i < len(st.SolarNodes) {
			rs.PanelHealthPct = st.SolarNodes[i].PanelHealthPct
		}
		if i < len(st.LastReadings) {
			rs.LastReading = st.LastReadings[i]
		}
		out = append(out, rs)
	}
	return out
}
