package hawl

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/zakat/internal/domain"
)

var (
	wallet = common.HexToAddress("0x1111111111111111111111111111111111111111")
	other  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	now    = time.Date(2025, 12, 15, 12, 0, 0, 0, time.UTC)
)

// monthTransfers builds one transfer per month from the oldest window month,
// inbound for positive deltas and outbound for negative ones.
func monthTransfers(deltas ...int64) []domain.Transfer {
	var txs []domain.Transfer
	for i, d := range deltas {
		ts := time.Date(now.Year(), now.Month()-time.Month(len(deltas)-1-i), 10, 0, 0, 0, 0, time.UTC)
		tx := domain.Transfer{Timestamp: ts, USD: decimal.NewFromInt(d).Abs()}
		if d >= 0 {
			tx.From, tx.To = other, wallet
		} else {
			tx.From, tx.To = wallet, other
		}
		txs = append(txs, tx)
	}
	return txs
}

func TestMonthlyReplay_Window(t *testing.T) {
	result := MonthlyReplay(nil, wallet, now)

	require.Len(t, result.Months, 12)
	assert.Equal(t, "2025-01", result.Months[0].Month)
	assert.Equal(t, "2025-12", result.Months[11].Month)
	assert.True(t, result.Hawl.IsZero())
}

func TestMonthlyReplay_AlternatingZeroNet(t *testing.T) {
	txs := monthTransfers(100, -100, 100, -100, 100, -100, 100, -100, 100, -100, 100, -100)

	result := MonthlyReplay(txs, wallet, now)
	require.Len(t, result.Months, 12)
	for i, m := range result.Months {
		expected := decimal.NewFromInt(100)
		if i%2 == 1 {
			expected = decimal.Zero
		}
		assert.True(t, expected.Equal(m.USD), "month %s: expected %s, got %s", m.Month, expected, m.USD)
	}
	assert.True(t, result.Hawl.IsZero())
}

func TestMonthlyReplay_MinimumIsLowestRunningTotal(t *testing.T) {
	// running: 500 300 400 150 350 350 350 450 450 450 450 600
	txs := monthTransfers(500, -200, 100, -250, 200, 0, 0, 100, 0, 0, 0, 150)

	result := MonthlyReplay(txs, wallet, now)
	assert.True(t, decimal.NewFromInt(150).Equal(result.Hawl), "got %s", result.Hawl)
	assert.True(t, decimal.NewFromInt(600).Equal(result.Months[11].USD))
}

func TestMonthlyReplay_FloorsAtZeroAndIgnoresNonPositive(t *testing.T) {
	txs := monthTransfers(-300, 200)
	txs = append(txs, domain.Transfer{Timestamp: now, From: other, To: wallet, USD: decimal.NewFromInt(-50)})

	result := MonthlyReplay(txs, wallet, now)
	assert.True(t, result.Months[10].USD.IsZero(), "negative running totals are floored")
	assert.True(t, result.Months[11].USD.IsZero(), "running total stays at -100 before flooring")
}

func TestMonthlyReplay_IgnoresTransfersOutsideWindow(t *testing.T) {
	txs := []domain.Transfer{
		{Timestamp: now.AddDate(-2, 0, 0), From: other, To: wallet, USD: decimal.NewFromInt(1000)},
		{Timestamp: now, From: other, To: wallet, USD: decimal.NewFromInt(10)},
	}

	result := MonthlyReplay(txs, wallet, now)
	assert.True(t, decimal.NewFromInt(10).Equal(result.Months[11].USD))
	assert.True(t, result.Hawl.IsZero())
}

func TestComputeHawlSimple(t *testing.T) {
	txs := []domain.Transfer{
		{Timestamp: now.AddDate(0, -2, 0), From: other, To: wallet, USD: decimal.NewFromInt(300)},
		{Timestamp: now.AddDate(0, -1, 0), From: wallet, To: other, USD: decimal.NewFromInt(100)},
		{Timestamp: now.AddDate(-2, 0, 0), From: other, To: wallet, USD: decimal.NewFromInt(5000)},
	}

	result := ComputeHawlSimple(decimal.NewFromInt(1000), txs, wallet, now)
	assert.True(t, decimal.NewFromInt(1000).Equal(result.Current))
	assert.True(t, decimal.NewFromInt(800).Equal(result.OneYearAgo), "got %s", result.OneYearAgo)
	assert.True(t, decimal.NewFromInt(800).Equal(result.Hawl))
	assert.True(t, decimal.NewFromInt(200).Equal(result.PlusValue))
}

func TestComputeHawlSimple_FloorsYearAgo(t *testing.T) {
	txs := []domain.Transfer{
		{Timestamp: now.AddDate(0, -1, 0), From: other, To: wallet, USD: decimal.NewFromInt(5000)},
	}

	result := ComputeHawlSimple(decimal.NewFromInt(1000), txs, wallet, now)
	assert.True(t, result.OneYearAgo.IsZero())
	assert.True(t, result.Hawl.IsZero())
	assert.True(t, decimal.NewFromInt(1000).Equal(result.PlusValue))
}

type fakeTransfers struct {
	transfers []domain.Transfer
	err       error
	since     time.Time
	calls     int
}

func (f *fakeTransfers) Transfers(_ context.Context, _ common.Address, _ int64, since time.Time) ([]domain.Transfer, error) {
	f.calls++
	f.since = since
	return f.transfers, f.err
}

func TestEstimator_Estimate(t *testing.T) {
	provider := &fakeTransfers{transfers: monthTransfers(500, -200)}
	e := NewEstimator(provider, domain.BaseChainID, zap.NewNop())
	e.now = func() time.Time { return now }

	estimate, err := e.Estimate(context.Background(), wallet.Hex(), decimal.NewFromInt(300))
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls, "history is fetched once for both estimators")
	assert.Equal(t, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), provider.since)
	assert.Len(t, estimate.Monthly.Months, 12)
	assert.True(t, decimal.Zero.Equal(estimate.Simple.OneYearAgo))
	assert.Equal(t, domain.HawlAdvisory, estimate.Note)
}

func TestEstimator_Errors(t *testing.T) {
	provider := &fakeTransfers{err: errors.Wrap(domain.ErrProviderUnavailable, "down")}
	e := NewEstimator(provider, domain.BaseChainID, zap.NewNop())

	_, err := e.Estimate(context.Background(), "not-an-address", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, provider.calls)

	_, err = e.Estimate(context.Background(), wallet.Hex(), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
