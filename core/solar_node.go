package core

import (
	"time"

	"github.com/epochworks/worldgrid-simulator/model"
)

// Solar sensor envelope and output calibration constants.
const (
	minIrradianceWM2 = 800.0
	maxIrradianceWM2 = 1200.0
	minTemperatureC  = 15.0
	maxTemperatureC  = 45.0

	// Panel health starts at 100% and degrades by U(0, maxHealthDecayPct)
	// per tick, never dropping below the floor.
	initialPanelHealthPct = 100.0
	panelHealthFloorPct   = 80.0
	maxHealthDecayPct     = 0.01

	// Output model: 1000 W/m2 of irradiance yields 0.3 MW at full health
	// and 25 C, derated 1% per degree above 25 C with a 0.75 floor.
	irradianceBaselineWM2 = 1000.0
	baseOutputFactorMW    = 0.3
	nominalTemperatureC   = 25.0
	tempDeratePerDegree   = 0.01
	tempDerateFloor       = 0.75
)

// SolarNodeController models one region's solar array. Each tick it samples
// simulated sensors, ages the panels, and calibrates the tick's energy
// output from the samples.
type SolarNodeController struct {
	Region         string
	PanelHealthPct float64

	rng *Rand
}

// NewSolarNodeController returns a controller for the named region with
// factory-fresh panels.
func NewSolarNodeController(region string, rng *Rand) *SolarNodeController {
	return &SolarNodeController{
		Region:         region,
		PanelHealthPct: initialPanelHealthPct,
		rng:            rng,
	}
}

// GenerateEnergy samples the sensors, applies panel aging, and returns the
// full reading for the tick. OutputMWh scales linearly with the tick
// interval: a one-hour interval at nominal conditions yields the full
// calibrated megawatt output as MWh.
func (c *SolarNodeController) GenerateEnergy(interval time.Duration) model.SolarPanelReading {
	irradiance := c.rng.Uniform(minIrradianceWM2, maxIrradianceWM2)
	temperature := c.rng.Uniform(minTemperatureC, maxTemperatureC)

	c.PanelHealthPct -= c.rng.Uniform(0, maxHealthDecayPct)
	if c.PanelHealthPct < panelHealthFloorPct {
		c.PanelHealthPct = panelHealthFloorPct
	}

	basePower := (irradiance / irradianceBaselineWM2) * baseOutputFactorMW
	healthFactor := c.PanelHealthPct / 100
	tempFactor := 1 - (temperature-nominalTemperatureC)*tempDeratePerDegree
	if tempFactor < tempDerateFloor {
		tempFactor = tempDerateFloor
	}

	hours := interval.Seconds() / 3600
	return model.SolarPanelReading{
		Region:         c.Region,
		IrradianceWM2:  irradiance,
		TemperatureC:   temperature,
		PanelHealthPct: c.PanelHealthPct,
		OutputMWh:      basePower * healthFactor * tempFactor * hours,
	}
}
