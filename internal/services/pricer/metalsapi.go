package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/zakat/internal/domain"
)

// GramsPerTroyOunce converts ounce quotes into gram prices.
var GramsPerTroyOunce = decimal.RequireFromString("31.1034768")

type ounceRateSource interface {
	LatestOunceRates(ctx context.Context) (gold, silver decimal.Decimal, _ error)
}

// MetalsAPIPricer converts live per-ounce quotes into per-gram prices.
type MetalsAPIPricer struct {
	source ounceRateSource
}

func NewMetalsAPIPricer(source ounceRateSource) *MetalsAPIPricer {
	return &MetalsAPIPricer{source: source}
}

func (p *MetalsAPIPricer) GetMetalPrices(ctx context.Context) (domain.MetalPrices, error) {
	gold, silver, err := p.source.LatestOunceRates(ctx)
	if err != nil {
		return domain.MetalPrices{}, errors.Wrap(err, "fetch metal spot prices")
	}

	return domain.MetalPrices{
		Gold:   gold.DivRound(GramsPerTroyOunce, 8),
		Silver: silver.DivRound(GramsPerTroyOunce, 8),
	}, nil
}
