package model

import "time"

// Transaction records one simulated BCP distribution. No coins move;
// the record mirrors what a real ledger client would have submitted.
type Transaction struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Recipient  string    `json:"recipient"`
	BCPUnits   float64   `json:"bcp_units"`
	BTCAmount  float64   `json:"btc_amount"`
	EnergyMWh  float64   `json:"energy_mwh"`
	OilBarrels float64   `json:"oil_barrels"`
	Note       string    `json:"note"`
}

// Projection is the stateless BCP asset projection derived from current
// resource totals. It never feeds back into simulation state.
type Projection struct {
	BCPUnits      float64 `json:"bcp_units"`
	BTCEquivalent float64 `json:"btc_equivalent"`
	PriceUSD      float64 `json:"price_usd"`
	Recipient     string  `json:"recipient"`
}
