// Package screening nets a wallet's classified holdings against its detected debts.
package screening

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/zakat/internal/domain"
	"github.com/vadiminshakov/zakat/internal/services/classifier"
)

type balanceProvider interface {
	Balances(ctx context.Context, address common.Address, chainID int64) ([]domain.RawBalance, error)
}

// Screener produces a ScreeningResult for one wallet on one chain.
type Screener struct {
	provider   balanceProvider
	classifier *classifier.Classifier
	chainID    int64
	// nisab applied when Screen is called with zero
	defaultNisab decimal.Decimal
	logger       *zap.Logger
}

func NewScreener(provider balanceProvider, c *classifier.Classifier, chainID int64, logger *zap.Logger) *Screener {
	if chainID == 0 {
		chainID = domain.BaseChainID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screener{provider: provider, classifier: c, chainID: chainID, defaultNisab: domain.DefaultNisab, logger: logger}
}

// WithDefaultNisab replaces the fallback threshold. Non-positive values are ignored.
func (s *Screener) WithDefaultNisab(nisab decimal.Decimal) *Screener {
	if nisab.IsPositive() {
		s.defaultNisab = nisab
	}
	return s
}

// ChainID returns the chain the screener queries.
func (s *Screener) ChainID() int64 {
	return s.chainID
}

// Screen fetches the balances of address, keeps included assets in provider
// order, subtracts detected liabilities and evaluates the result against nisab
// (the default nisab when zero). User-declared debts are not applied here.
func (s *Screener) Screen(ctx context.Context, address string, nisab decimal.Decimal) (domain.ScreeningResult, error) {
	addr, err := domain.ParseAddress(address)
	if err != nil {
		return domain.ScreeningResult{}, err
	}
	if nisab.IsZero() {
		nisab = s.defaultNisab
	}

	raw, err := s.provider.Balances(ctx, addr, s.chainID)
	if err != nil {
		return domain.ScreeningResult{}, fmt.Errorf("%w: %w", domain.ErrScreeningFailed, err)
	}

	assets := make([]domain.AssetRecord, 0, len(raw))
	var liabilities []domain.LiabilityRecord
	excluded := 0
	for _, r := range raw {
		c := s.classifier.Classify(r)
		switch {
		case c.Liability != nil:
			liabilities = append(liabilities, *c.Liability)
		case c.Included:
			assets = append(assets, c.Asset)
		default:
			excluded++
		}
	}

	result := domain.ScreeningResult{
		Nisab:       nisab,
		Assets:      assets,
		Liabilities: liabilities,
	}
	result.TotalNetUSD = decimal.Max(decimal.Zero, result.AssetsUSD().Sub(result.LiabilitiesUSD()))

	verdict := domain.CalculateZakat(result.TotalNetUSD, nisab)
	result.Liable = verdict.Liable
	result.AmountDue = verdict.AmountDue
	result.Diagnostic = verdict.Diagnostic

	s.logger.Debug("wallet screened",
		zap.String("address", addr.Hex()),
		zap.Int64("chain_id", s.chainID),
		zap.Int("rows", len(raw)),
		zap.Int("assets", len(assets)),
		zap.Int("liabilities", len(liabilities)),
		zap.Int("excluded", excluded),
		zap.String("net_usd", result.TotalNetUSD.String()),
	)

	return result, nil
}
