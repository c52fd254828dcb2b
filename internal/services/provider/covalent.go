// Package provider adapts the indexing API to the screening domain types.
package provider

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/zakat/internal/clients"
	"github.com/vadiminshakov/zakat/internal/domain"
)

type covalentAPI interface {
	Balances(ctx context.Context, chainID int64, address string) ([]clients.BalanceItem, error)
	Transactions(ctx context.Context, chainID int64, address string, since time.Time) ([]clients.TransactionItem, error)
}

// CovalentProvider serves balances and transfer history from Covalent.
type CovalentProvider struct {
	api    covalentAPI
	logger *zap.Logger
}

func NewCovalentProvider(api covalentAPI, logger *zap.Logger) *CovalentProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CovalentProvider{api: api, logger: logger}
}

// Balances returns the raw balance rows of address on chainID, in provider order.
func (p *CovalentProvider) Balances(ctx context.Context, address common.Address, chainID int64) ([]domain.RawBalance, error) {
	items, err := p.api.Balances(ctx, chainID, address.Hex())
	if err != nil {
		return nil, errors.Wrapf(err, "balances of %s on chain %d", address.Hex(), chainID)
	}

	balances := make([]domain.RawBalance, 0, len(items))
	for _, item := range items {
		balances = append(balances, domain.RawBalance{
			Symbol:          item.ContractTickerSymbol,
			Name:            item.ContractName,
			Category:        item.Type,
			Balance:         item.Balance,
			Decimals:        item.ContractDecimals,
			Quote:           item.Quote,
			ContractAddress: item.ContractAddress,
			LogoURL:         item.LogoURL,
			Complete:        item.Complete,
		})
	}

	return balances, nil
}

// Transfers returns the transfers touching address since the given time, in
// provider order. Rows without a parseable timestamp are dropped.
func (p *CovalentProvider) Transfers(ctx context.Context, address common.Address, chainID int64, since time.Time) ([]domain.Transfer, error) {
	items, err := p.api.Transactions(ctx, chainID, address.Hex(), since)
	if err != nil {
		return nil, errors.Wrapf(err, "transactions of %s on chain %d", address.Hex(), chainID)
	}

	transfers := make([]domain.Transfer, 0, len(items))
	for _, item := range items {
		ts, err := time.Parse(time.RFC3339, item.BlockSignedAt)
		if err != nil {
			p.logger.Debug("skip transaction without timestamp", zap.String("tx", item.TxHash))
			continue
		}

		transfers = append(transfers, domain.Transfer{
			Timestamp: ts.UTC(),
			From:      parseCounterparty(item.FromAddress),
			To:        parseCounterparty(item.ToAddress),
			USD:       item.ValueQuote,
		})
	}

	return transfers, nil
}

// parseCounterparty returns the zero address for anything that is not a hex address.
func parseCounterparty(s string) common.Address {
	if !common.IsHexAddress(s) {
		return common.Address{}
	}
	return common.HexToAddress(s)
}
