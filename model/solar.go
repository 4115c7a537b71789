package model

// SolarPanelReading captures one tick's simulated sensor sample for a
// region's solar array, together with the calibrated output for the tick.
type SolarPanelReading struct {
	Region         string  `json:"region"`
	IrradianceWM2  float64 `json:"irradiance_w_m2"`
	TemperatureC   float64 `json:"temperature_c"`
	PanelHealthPct float64 `json:"panel_health_pct"`
	OutputMWh      float64 `json:"output_mwh"`
}
