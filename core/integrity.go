package core

// Threat levels are drawn from U(minThreatLevel, maxThreatLevel) each tick;
// anything strictly above quarantineThreshold is quarantined. The threshold
// itself is benign.
const (
	minThreatLevel      = 1000.0
	maxThreatLevel      = 9000.0
	quarantineThreshold = 8500.0
)

// IntegrityMonitor is the grid's sovereignty protocol: it watches simulated
// threat levels and quarantines anything above the threshold. Quarantine is
// always enabled in this simulation; the flag exists so a future scenario
// can model a disarmed grid.
type IntegrityMonitor struct {
	ActiveThreats     int
	QuarantineEnabled bool

	rng *Rand
}

// NewIntegrityMonitor returns a monitor with quarantine armed and no
// recorded threats.
func NewIntegrityMonitor(rng *Rand) *IntegrityMonitor {
	return &IntegrityMonitor{QuarantineEnabled: true, rng: rng}
}

// MonitorGridIntegrity draws the tick's threat level and reports whether an
// anomaly was detected and quarantined. Detections increment ActiveThreats.
func (m *IntegrityMonitor) MonitorGridIntegrity() bool {
	level := m.rng.Uniform(minThreatLevel, maxThreatLevel)
	if !anomalous(level) {
		return false
	}
	m.ActiveThreats++
	return true
}

// anomalous reports whether a threat level warrants quarantine. Strictly
// greater: a reading exactly at the threshold passes.
func anomalous(level float64) bool {
	return level > quarantineThreshold
}
