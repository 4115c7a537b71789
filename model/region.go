package model

// RegionStatus is a display-oriented summary of one grid region: the
// accumulated distribution balance plus the latest solar sensor sample.
type RegionStatus struct {
	Name           string            `json:"name"`
	BalanceMWh     float64           `json:"balance_mwh"`
	PanelHealthPct float64           `json:"panel_health_pct"`
	LastReading    SolarPanelReading `json:"last_reading"`
}
