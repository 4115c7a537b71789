package core

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

// testEngine returns a seeded engine over the default scenario.
func testEngine(t *testing.T, seed int64, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), NewRand(seed), opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestSimulateSupplyChain_Format(t *testing.T) {
	e := testEngine(t, 41)
	re := regexp.MustCompile(`^\[SUPPLY_CHAIN\] Delivered (\d+)L water \+ (antivirals|antibiotics|vaccines) to RegionAlpha$`)
	for i := 0; i < 200; i++ {
		line := e.SimulateSupplyChain("RegionAlpha")
		m := re.FindStringSubmatch(line)
		if m == nil {
			t.Fatalf("supply chain line %q does not match expected format", line)
		}
		litres := m[1]
		if len(litres) != 5 || litres < "10000" || litres > "20000" {
			t.Fatalf("water volume out of range: %q", litres)
		}
	}
}

func TestSimulateOrbitalScan_KnownFindings(t *testing.T) {
	e := testEngine(t, 43)
	now := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)
	prefix := "[ORBITAL SCAN] Satellite scan of RegionBeta: "
	for i := 0; i < 200; i++ {
		line := e.SimulateOrbitalScan("RegionBeta", now)
		if !strings.HasPrefix(line, prefix) {
			t.Fatalf("scan line %q missing prefix", line)
		}
		finding := strings.TrimPrefix(line, prefix)
		switch finding {
		case "Gold Vein Located", "Tectonic Stress Point Detected", "Uranium Trace Signature", "No Anomaly":
		default:
			t.Fatalf("unknown finding %q", finding)
		}
	}
}

func TestSimulateOrbitalScan_SurveyorAnnotates(t *testing.T) {
	surveyor := NewOrbitalSurveyor("EZ-SURVEY-1", issTLE1, issTLE2)
	e := testEngine(t, 43, WithOrbitalSurveyor(surveyor))
	now := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)

	line := e.SimulateOrbitalScan("RegionBeta", now)
	re := regexp.MustCompile(` \(EZ-SURVEY-1 @ \d+\.\d[NS] \d+\.\d[EW]\)$`)
	if !re.MatchString(line) {
		t.Fatalf("annotated scan line %q missing subpoint suffix", line)
	}
}

func TestRegisterSovereignID_Format(t *testing.T) {
	e := testEngine(t, 47)
	re := regexp.MustCompile(`^\[SOVEREIGN ID\] SEED_(\d{4})_RE active in RegionGamma \(rep: (0\.\d{1,2}|1)\)$`)
	for i := 0; i < 200; i++ {
		line := e.RegisterSovereignID("RegionGamma")
		m := re.FindStringSubmatch(line)
		if m == nil {
			t.Fatalf("sovereign line %q does not match expected format", line)
		}
		if m[1] < "1000" || m[1] > "9999" {
			t.Fatalf("sovereign seed out of range: %q", m[1])
		}
	}
}

func TestRegisterSovereignID_ShortRegionName(t *testing.T) {
	e := testEngine(t, 47)
	line := e.RegisterSovereignID("X")
	if !strings.Contains(line, "_X active in X") {
		t.Fatalf("single-letter region should keep its whole name in the token, got %q", line)
	}
}

func TestSearchForGold_Bounds(t *testing.T) {
	e := testEngine(t, 53)
	for i := 0; i < 500; i++ {
		got := e.SearchForGold(time.Minute)
		if got < 0 || got > 0.002 {
			t.Fatalf("gold yield for one minute out of range: %v", got)
		}
	}
	// A one second tick scales the per-minute rate down accordingly.
	for i := 0; i < 500; i++ {
		got := e.SearchForGold(time.Second)
		if got < 0 || got > 0.002/60+1e-9 {
			t.Fatalf("gold yield for one second out of range: %v", got)
		}
	}
}

func TestSearchForOil_Bounds(t *testing.T) {
	e := testEngine(t, 59)
	for i := 0; i < 500; i++ {
		got := e.SearchForOil(time.Minute)
		if got < 0 || got > 0.003 {
			t.Fatalf("oil yield for one minute out of range: %v", got)
		}
	}
}

func TestScanForNuclearSignatures_ZeroOrOne(t *testing.T) {
	e := testEngine(t, 61)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		got := e.ScanForNuclearSignatures()
		if got != 0 && got != 1 {
			t.Fatalf("nuclear scan outside {0, 1}: %d", got)
		}
		seen[got] = true
	}
	if !seen[0] || !seen[1] {
		t.Fatalf("nuclear scan never produced both outcomes: %v", seen)
	}
}

func TestFormatScore_NoTrailingZeros(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0.5, "0.5"},
		{0.87, "0.87"},
		{1, "1"},
	}
	for _, c := range cases {
		if got := formatScore(c.in); got != c.want {
			t.Fatalf("formatScore(%v): got %q, want %q", c.in, got, c.want)
		}
	}
}
