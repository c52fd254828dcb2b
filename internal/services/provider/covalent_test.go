package provider

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

	"github.com/vadiminshakov/zakat/internal/clients"
	"github.com/vadiminshakov/zakat/internal/domain"
)

type fakeAPI struct {
	balances     []clients.BalanceItem
	transactions []clients.TransactionItem
	err          error
	gotAddress   string
	gotChain     int64
}

func (f *fakeAPI) Balances(_ context.Context, chainID int64, address string) ([]clients.BalanceItem, error) {
	f.gotChain, f.gotAddress = chainID, address
	return f.balances, f.err
}

func (f *fakeAPI) Transactions(_ context.Context, chainID int64, address string, _ time.Time) ([]clients.TransactionItem, error) {
	f.gotChain, f.gotAddress = chainID, address
	return f.transactions, f.err
}

var wallet = common.HexToAddress("0x1111111111111111111111111111111111111111")

func TestCovalentProvider_Balances(t *testing.T) {
	api := &fakeAPI{balances: []clients.BalanceItem{
		{
			ContractTickerSymbol: "USDC",
			ContractName:         "USD Coin",
			Type:                 "stablecoin",
			Balance:              decimal.NewFromInt(1_000_000),
			ContractDecimals:     6,
			Quote:                decimal.NewFromInt(1),
			Complete:             true,
		},
	}}
	p := NewCovalentProvider(api, zap.NewNop())

	balances, err := p.Balances(context.Background(), wallet, domain.BaseChainID)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "USDC", balances[0].Symbol)
	assert.Equal(t, "stablecoin", balances[0].Category)
	assert.Equal(t, int32(6), balances[0].Decimals)
	assert.True(t, balances[0].Complete)
	assert.Equal(t, int64(domain.BaseChainID), api.gotChain)
	assert.Equal(t, wallet.Hex(), api.gotAddress)
}

func TestCovalentProvider_PropagatesErrors(t *testing.T) {
	api := &fakeAPI{err: errors.Wrap(domain.ErrProviderUnavailable, "boom")}
	p := NewCovalentProvider(api, zap.NewNop())

	_, err := p.Balances(context.Background(), wallet, domain.BaseChainID)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)

	_, err = p.Transfers(context.Background(), wallet, domain.BaseChainID, time.Time{})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestCovalentProvider_Transfers(t *testing.T) {
	api := &fakeAPI{transactions: []clients.TransactionItem{
		{
			BlockSignedAt: "2025-03-04T05:06:07Z",
			TxHash:        "0xa",
			FromAddress:   "0x2222222222222222222222222222222222222222",
			ToAddress:     "0x1111111111111111111111111111111111111111",
			ValueQuote:    decimal.NewFromInt(42),
		},
		{BlockSignedAt: "", TxHash: "0xb"},
		{
			BlockSignedAt: "2025-03-05T00:00:00Z",
			TxHash:        "0xc",
			FromAddress:   "0x1111111111111111111111111111111111111111",
			ToAddress:     "",
		},
	}}
	p := NewCovalentProvider(api, zap.NewNop())

	transfers, err := p.Transfers(context.Background(), wallet, domain.BaseChainID, time.Time{})
	require.NoError(t, err)
	require.Len(t, transfers, 2)

	assert.Equal(t, time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), transfers[0].Timestamp)
	assert.Equal(t, wallet, transfers[0].To)
	assert.True(t, decimal.NewFromInt(42).Equal(transfers[0].USD))

	assert.Equal(t, wallet, transfers[1].From)
	assert.Equal(t, common.Address{}, transfers[1].To)
}
