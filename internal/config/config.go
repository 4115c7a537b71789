// Package config loads scenario configuration for the world grid
// simulator. Embedded defaults describe the stock three-region scenario;
// an optional YAML file overrides any field it names.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/epochworks/worldgrid-simulator/core"
	"github.com/epochworks/worldgrid-simulator/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every scenario parameter the binaries accept.
type Config struct {
	Scenario  ScenarioConfig  `yaml:"scenario"`
	Satellite SatelliteConfig `yaml:"satellite"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Export    ExportConfig    `yaml:"export"`
}

// ScenarioConfig holds the world layout and tick cadence.
type ScenarioConfig struct {
	Name        string   `yaml:"name"`
	Regions     []string `yaml:"regions"`
	TickSeconds float64  `yaml:"tick_seconds"`
	LogCapacity int      `yaml:"log_capacity"`
	Seed        int64    `yaml:"seed"` // 0 selects a time-derived seed
}

// SatelliteConfig names the survey satellite. Both TLE lines empty means
// no satellite; scan events then carry no subpoint annotation.
type SatelliteConfig struct {
	Name string `yaml:"name"`
	TLE1 string `yaml:"tle1"`
	TLE2 string `yaml:"tle2"`
}

// LedgerConfig holds the asset projection coefficients and the simulated
// payout recipient.
type LedgerConfig struct {
	Recipient       string  `yaml:"recipient"`
	AssetRatePerMWh float64 `yaml:"asset_rate_per_mwh"`
	AssetRatePerOil float64 `yaml:"asset_rate_per_oil"`
	AssetPriceUSD   float64 `yaml:"asset_price_usd"`
}

// ExportConfig controls telemetry file output.
type ExportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Load reads configuration from a YAML file, merging over the embedded
// defaults. An empty path uses defaults alone. The returned config has
// been validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct so only fields present in the
		// file overwrite defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks the file-level invariants and the engine parameters.
func (c *Config) Validate() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}
	if (c.Satellite.TLE1 == "") != (c.Satellite.TLE2 == "") {
		return fmt.Errorf("satellite: tle1 and tle2 must both be set or both be empty")
	}
	if c.Satellite.TLE1 != "" && c.Satellite.Name == "" {
		return fmt.Errorf("satellite: name required when TLE lines are set")
	}
	if c.Export.Enabled && c.Export.Dir == "" {
		return fmt.Errorf("export: dir required when export is enabled")
	}
	return nil
}

// WriteYAML saves the effective configuration, for run provenance.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// TickInterval returns the tick cadence as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Scenario.TickSeconds * float64(time.Second))
}

// EngineConfig maps the loaded scenario onto engine parameters.
func (c *Config) EngineConfig() core.Config {
	return core.Config{
		Regions:         c.Scenario.Regions,
		TickInterval:    c.TickInterval(),
		LogCapacity:     c.Scenario.LogCapacity,
		Recipient:       c.Ledger.Recipient,
		AssetRatePerMWh: c.Ledger.AssetRatePerMWh,
		AssetRatePerOil: c.Ledger.AssetRatePerOil,
		AssetPriceUSD:   c.Ledger.AssetPriceUSD,
	}
}

// Surveyor constructs the survey satellite, or nil when the scenario has
// no TLE.
func (c *Config) Surveyor() *core.OrbitalSurveyor {
	sat := model.SurveySatellite{Name: c.Satellite.Name, TLELine1: c.Satellite.TLE1, TLELine2: c.Satellite.TLE2}
	if !sat.HasTLE() {
		return nil
	}
	return core.NewOrbitalSurveyor(sat.Name, sat.TLELine1, sat.TLELine2)
}
