package core

import (
	"math"
	"testing"
)

func TestProject_StockRates(t *testing.T) {
	cfg := DefaultConfig()
	p := Project(10, 4, cfg)

	// 10 MWh at 0.05 plus 4 barrels at 0.01.
	wantUnits := 0.54
	if math.Abs(p.BCPUnits-wantUnits) > 1e-12 {
		t.Fatalf("BCPUnits: got %v, want %v", p.BCPUnits, wantUnits)
	}
	wantBTC := wantUnits / 30000
	if math.Abs(p.BTCEquivalent-wantBTC) > 1e-15 {
		t.Fatalf("BTCEquivalent: got %v, want %v", p.BTCEquivalent, wantBTC)
	}
	if p.PriceUSD != 30000 {
		t.Fatalf("PriceUSD: got %v, want 30000", p.PriceUSD)
	}
	if p.Recipient != DefaultRecipient {
		t.Fatalf("Recipient: got %q, want %q", p.Recipient, DefaultRecipient)
	}
}

func TestProject_ZeroTotals(t *testing.T) {
	p := Project(0, 0, DefaultConfig())
	if p.BCPUnits != 0 || p.BTCEquivalent != 0 {
		t.Fatalf("zero totals should project zero units, got %+v", p)
	}
}

func TestProject_CustomRates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AssetRatePerMWh = 0.1
	cfg.AssetRatePerOil = 0.2
	cfg.AssetPriceUSD = 1000

	p := Project(2, 3, cfg)
	if math.Abs(p.BCPUnits-0.8) > 1e-12 {
		t.Fatalf("BCPUnits: got %v, want 0.8", p.BCPUnits)
	}
	if math.Abs(p.BTCEquivalent-0.0008) > 1e-15 {
		t.Fatalf("BTCEquivalent: got %v, want 0.0008", p.BTCEquivalent)
	}
}
