package pricer

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/zakat/internal/domain"
)

func TestStaticPricer(t *testing.T) {
	prices, err := NewStaticPricer(decimal.Zero, decimal.Zero).GetMetalPrices(context.Background())
	require.NoError(t, err)
	assert.True(t, DefaultGoldPerGram.Equal(prices.Gold))
	assert.True(t, DefaultSilverPerGram.Equal(prices.Silver))

	prices, err = NewStaticPricer(decimal.NewFromInt(90), decimal.NewFromInt(1)).GetMetalPrices(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(90).Equal(prices.Gold))
	assert.True(t, decimal.NewFromInt(1).Equal(prices.Silver))
}

type fakeOunceSource struct {
	gold, silver decimal.Decimal
	err          error
}

func (f fakeOunceSource) LatestOunceRates(context.Context) (decimal.Decimal, decimal.Decimal, error) {
	return f.gold, f.silver, f.err
}

func TestMetalsAPIPricer(t *testing.T) {
	t.Run("converts ounces to grams", func(t *testing.T) {
		p := NewMetalsAPIPricer(fakeOunceSource{
			gold:   GramsPerTroyOunce.Mul(decimal.NewFromInt(75)),
			silver: GramsPerTroyOunce.Mul(decimal.RequireFromString("0.95")),
		})

		prices, err := p.GetMetalPrices(context.Background())
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(75).Equal(prices.Gold), "got %s", prices.Gold)
		assert.True(t, decimal.RequireFromString("0.95").Equal(prices.Silver), "got %s", prices.Silver)
	})

	t.Run("propagates provider errors", func(t *testing.T) {
		p := NewMetalsAPIPricer(fakeOunceSource{err: domain.ErrProviderUnavailable})

		_, err := p.GetMetalPrices(context.Background())
		assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
	})
}
