package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestInstrumentHandlerRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	handler := collector.InstrumentHandler("/v1/status", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := testutil.ToFloat64(collector.APIRequests.WithLabelValues("/v1/status", "GET", "200")); got != 1 {
		t.Fatalf("api_requests_total = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "api_request_duration_seconds", map[string]string{
		"route":  "/v1/status",
		"method": "GET",
	}); count != 1 {
		t.Fatalf("api_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestInstrumentHandlerRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	handler := collector.InstrumentHandler("/v1/simulation/start", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "already running", http.StatusConflict)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/simulation/start", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(collector.APIRequests.WithLabelValues("/v1/simulation/start", "POST", "409")); got != 1 {
		t.Fatalf("api_requests_total error label = %v, want 1", got)
	}
}

func TestRecorderMethodsDriveGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.SetStepCount(7)
	collector.SetTickEnergy(0.00025)
	collector.SetResourceTotals(12.5, 0.001, 0.0025, 3)
	collector.SetRegionBalance("RegionAlpha", 4.5)
	collector.SetPanelHealth("RegionAlpha", 92.5)
	collector.AddAnomalies(2)
	collector.ObserveTickSeconds(0.0004)
	collector.IncTransactions()

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"sim_step_count", testutil.ToFloat64(collector.StepCount), 7},
		{"sim_tick_energy_mwh", testutil.ToFloat64(collector.TickEnergyMWh), 0.00025},
		{"sim_total_energy_mwh", testutil.ToFloat64(collector.TotalEnergyMWh), 12.5},
		{"sim_gold_units", testutil.ToFloat64(collector.GoldUnits), 0.001},
		{"sim_oil_barrels", testutil.ToFloat64(collector.OilBarrels), 0.0025},
		{"sim_nuclear_signatures", testutil.ToFloat64(collector.NuclearSignatures), 3},
		{"sim_region_balance_mwh", testutil.ToFloat64(collector.RegionBalance.WithLabelValues("RegionAlpha")), 4.5},
		{"sim_panel_health_pct", testutil.ToFloat64(collector.PanelHealth.WithLabelValues("RegionAlpha")), 92.5},
		{"sim_anomalies_total", testutil.ToFloat64(collector.Anomalies), 2},
		{"ledger_transactions_total", testutil.ToFloat64(collector.Transactions), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if count := histogramSampleCount(t, reg, "sim_tick_duration_seconds", nil); count != 1 {
		t.Fatalf("sim_tick_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var collector *SimCollector

	collector.SetStepCount(1)
	collector.SetTickEnergy(1)
	collector.SetResourceTotals(1, 1, 1, 1)
	collector.SetRegionBalance("RegionAlpha", 1)
	collector.SetPanelHealth("RegionAlpha", 1)
	collector.AddAnomalies(1)
	collector.ObserveTickSeconds(1)
	collector.IncTransactions()

	called := false
	handler := collector.InstrumentHandler("/v1/status", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	if !called {
		t.Fatal("nil collector should still invoke the wrapped handler")
	}
}

func TestCollectorReregisterReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	second, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector second registration: %v", err)
	}

	first.SetStepCount(11)
	if got := testutil.ToFloat64(second.StepCount); got != 11 {
		t.Fatalf("second collector gauge = %v, want 11 (shared with first)", got)
	}
}

func TestMetricsHandlerExposesSimGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.SetStepCount(3)
	collector.SetResourceTotals(4, 5, 6, 7)
	collector.APIRequests.WithLabelValues("/v1/state", "GET", "200").Inc()
	collector.APIDurations.WithLabelValues("/v1/state", "GET").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"api_requests_total",
		"api_request_duration_seconds",
		"sim_step_count",
		"sim_total_energy_mwh",
		"sim_gold_units",
		"sim_oil_barrels",
		"sim_nuclear_signatures",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
