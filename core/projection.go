package core

import "github.com/epochworks/worldgrid-simulator/model"

// Project computes the asset projection for the given resource totals.
// It reads nothing but its arguments and never mutates session state, so
// display surfaces can call it on every request.
func Project(totalEnergyMWh, oilBarrels float64, cfg Config) model.Projection {
	units := totalEnergyMWh*cfg.AssetRatePerMWh + oilBarrels*cfg.AssetRatePerOil
	return model.Projection{
		BCPUnits:      units,
		BTCEquivalent: units / cfg.AssetPriceUSD,
		PriceUSD:      cfg.AssetPriceUSD,
		Recipient:     cfg.Recipient,
	}
}
