// Package export writes run telemetry to disk: per-tick and per-region
// CSV files plus a JSON summary at shutdown. A nil Writer is valid and
// drops everything, so callers never branch on whether export is enabled.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/epochworks/worldgrid-simulator/internal/config"
	"github.com/epochworks/worldgrid-simulator/internal/sim/state"
	"github.com/epochworks/worldgrid-simulator/model"
)

// TickRecord is one telemetry.csv row.
type TickRecord struct {
	Step              int     `csv:"step"`
	SimTime           string  `csv:"sim_time"`
	TickEnergyMWh     float64 `csv:"tick_energy_mwh"`
	TotalEnergyMWh    float64 `csv:"total_energy_mwh"`
	GoldUnits         float64 `csv:"gold_units"`
	OilBarrels        float64 `csv:"oil_barrels"`
	NuclearSignatures int     `csv:"nuclear_signatures"`
	AnomalyDetected   bool    `csv:"anomaly_detected"`
}

// RegionRecord is one regions.csv row.
type RegionRecord struct {
	Step           int     `csv:"step"`
	Region         string  `csv:"region"`
	BalanceMWh     float64 `csv:"balance_mwh"`
	PanelHealthPct float64 `csv:"panel_health_pct"`
	IrradianceWM2  float64 `csv:"irradiance_wm2"`
	TemperatureC   float64 `csv:"temperature_c"`
	OutputMWh      float64 `csv:"output_mwh"`
}

// Summary is the run-level record written to summary.json.
type Summary struct {
	Scenario          string               `json:"scenario"`
	Seed              int64                `json:"seed"`
	Steps             int                  `json:"steps"`
	SimTime           time.Time            `json:"sim_time"`
	TotalEnergyMWh    float64              `json:"total_energy_mwh"`
	GoldUnits         float64              `json:"gold_units"`
	OilBarrels        float64              `json:"oil_barrels"`
	NuclearSignatures int                  `json:"nuclear_signatures"`
	AnomalyCount      int                  `json:"anomaly_count"`
	Regions           []model.RegionStatus `json:"regions"`
	Projection        model.Projection     `json:"projection"`
	Transactions      []model.Transaction  `json:"transactions"`
}

// Writer streams run telemetry into an output directory.
type Writer struct {
	dir         string
	ticksFile   *os.File
	regionsFile *os.File

	ticksHeaderWritten   bool
	regionsHeaderWritten bool
}

// NewWriter creates the output directory and its CSV files. An empty dir
// disables export; the returned nil Writer swallows all writes.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	w := &Writer{dir: dir}

	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	w.ticksFile = f

	f, err = os.Create(filepath.Join(dir, "regions.csv"))
	if err != nil {
		w.ticksFile.Close()
		return nil, fmt.Errorf("creating regions.csv: %w", err)
	}
	w.regionsFile = f

	return w, nil
}

// Dir returns the output directory path.
func (w *Writer) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// WriteScenario saves the effective configuration alongside the telemetry.
func (w *Writer) WriteScenario(cfg *config.Config) error {
	if w == nil || cfg == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(w.dir, "scenario.yaml"))
}

// RecordTick appends the tick to telemetry.csv and one row per region to
// regions.csv.
func (w *Writer) RecordTick(ev state.TickEvent) error {
	if w == nil {
		return nil
	}

	ticks := []TickRecord{{
		Step:              ev.Step,
		SimTime:           ev.SimTime.UTC().Format(time.RFC3339),
		TickEnergyMWh:     ev.TickEnergyMWh,
		TotalEnergyMWh:    ev.TotalEnergyMWh,
		GoldUnits:         ev.GoldUnits,
		OilBarrels:        ev.OilBarrels,
		NuclearSignatures: ev.NuclearSignatures,
		AnomalyDetected:   ev.AnomalyDetected,
	}}
	if !w.ticksHeaderWritten {
		if err := gocsv.Marshal(ticks, w.ticksFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		w.ticksHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(ticks, w.ticksFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}

	regions := make([]RegionRecord, 0, len(ev.Regions))
	for _, rs := range ev.Regions {
		regions = append(regions, RegionRecord{
			Step:           ev.Step,
			Region:         rs.Name,
			BalanceMWh:     rs.BalanceMWh,
			PanelHealthPct: rs.PanelHealthPct,
			IrradianceWM2:  rs.LastReading.IrradianceWM2,
			TemperatureC:   rs.LastReading.TemperatureC,
			OutputMWh:      rs.LastReading.OutputMWh,
		})
	}
	if len(regions) == 0 {
		return nil
	}
	if !w.regionsHeaderWritten {
		if err := gocsv.Marshal(regions, w.regionsFile); err != nil {
			return fmt.Errorf("writing regions: %w", err)
		}
		w.regionsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(regions, w.regionsFile); err != nil {
			return fmt.Errorf("writing regions: %w", err)
		}
	}
	return nil
}

// WriteSummary saves the run summary as JSON.
func (w *Writer) WriteSummary(s Summary) error {
	if w == nil {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, "summary.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}
	return nil
}

// Close flushes and closes the CSV files, returning the first error.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}

	var firstErr error
	if w.ticksFile != nil {
		if err := w.ticksFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if w.regionsFile != nil {
		if err := w.regionsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
