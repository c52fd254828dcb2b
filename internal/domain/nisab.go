package domain

import "github.com/shopspring/decimal"

var (
	// GoldNisabGrams is the classical gold reference for the Nisab.
	GoldNisabGrams = decimal.NewFromInt(85)
	// SilverNisabGrams is the classical silver reference for the Nisab.
	SilverNisabGrams = decimal.NewFromInt(595)
	// DefaultNisab is used when a screening is requested without a threshold.
	DefaultNisab = decimal.NewFromInt(500)
)

// MetalPrices USD spot price per gram of gold and silver.
type MetalPrices struct {
	Gold   decimal.Decimal `json:"gold"`
	Silver decimal.Decimal `json:"silver"`
}

// NisabGrams the gram weights used to turn metal prices into a Nisab.
type NisabGrams struct {
	Gold   decimal.Decimal
	Silver decimal.Decimal
}

// DefaultNisabGrams returns the 85 g gold / 595 g silver references.
func DefaultNisabGrams() NisabGrams {
	return NisabGrams{Gold: GoldNisabGrams, Silver: SilverNisabGrams}
}

// NisabFromPrices returns the lower of the gold-based and silver-based thresholds.
func NisabFromPrices(prices MetalPrices, grams NisabGrams) decimal.Decimal {
	gold := prices.Gold.Mul(grams.Gold)
	silver := prices.Silver.Mul(grams.Silver)
	return decimal.Min(gold, silver)
}
