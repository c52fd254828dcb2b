package pricer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/zakat/internal/domain"
)

var (
	// DefaultGoldPerGram placeholder gold price used when no live source is configured.
	DefaultGoldPerGram = decimal.NewFromInt(75)
	// DefaultSilverPerGram placeholder silver price used when no live source is configured.
	DefaultSilverPerGram = decimal.RequireFromString("0.95")
)

// StaticPricer returns fixed prices.
type StaticPricer struct {
	prices domain.MetalPrices
}

// NewStaticPricer creates a pricer with fixed per-gram prices. Zero values fall back to the defaults.
func NewStaticPricer(goldPerGram, silverPerGram decimal.Decimal) *StaticPricer {
	if !goldPerGram.IsPositive() {
		goldPerGram = DefaultGoldPerGram
	}
	if !silverPerGram.IsPositive() {
		silverPerGram = DefaultSilverPerGram
	}
	return &StaticPricer{prices: domain.MetalPrices{Gold: goldPerGram, Silver: silverPerGram}}
}

func (p *StaticPricer) GetMetalPrices(context.Context) (domain.MetalPrices, error) {
	return p.prices, nil
}
