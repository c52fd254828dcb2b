package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/zakat/internal/domain"
)

// Basis selects which wealth figure is tested against the Nisab.
type Basis string

const (
	// BasisInstantaneous uses the current net worth.
	BasisInstantaneous Basis = "instantaneous"
	// BasisHawlMonthly caps net worth by the lowest month-end balance of the past year.
	BasisHawlMonthly Basis = "hawl_monthly"
	// BasisHawlSimple caps net worth by the lower of today and one year ago.
	BasisHawlSimple Basis = "hawl_simple"
)

// ParseBasis maps a user-supplied name to a Basis. Empty means instantaneous.
func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case "", BasisInstantaneous:
		return BasisInstantaneous, nil
	case BasisHawlMonthly, BasisHawlSimple:
		return Basis(s), nil
	default:
		return "", fmt.Errorf("%w: unknown basis %q", domain.ErrInvalidInput, s)
	}
}

// MetalPricer provides gold and silver spot prices per gram.
type MetalPricer interface {
	GetMetalPrices(ctx context.Context) (domain.MetalPrices, error)
}

// Screener screens one wallet against a Nisab.
type Screener interface {
	Screen(ctx context.Context, address string, nisab decimal.Decimal) (domain.ScreeningResult, error)
	ChainID() int64
}

// HawlEstimator reconstructs the wallet's balance over the past lunar year.
type HawlEstimator interface {
	Estimate(ctx context.Context, address string, current decimal.Decimal) (domain.HawlEstimate, error)
}

// Request parameters of one Zakat calculation.
type Request struct {
	Address string
	// Debts declared by the user, not visible on chain. Never persisted.
	Debts decimal.Decimal
	// Nisab overrides the metal-derived threshold when positive.
	Nisab decimal.Decimal
	Basis Basis
}

// NisabReport the threshold and the prices it was derived from.
type NisabReport struct {
	Prices      domain.MetalPrices `json:"prices_per_gram"`
	GoldGrams   decimal.Decimal    `json:"gold_grams"`
	SilverGrams decimal.Decimal    `json:"silver_grams"`
	Nisab       decimal.Decimal    `json:"nisab"`
}

// Report full outcome of a Zakat calculation.
type Report struct {
	RequestID     string                 `json:"request_id"`
	Address       string                 `json:"address"`
	ChainID       int64                  `json:"chain_id"`
	Basis         Basis                  `json:"basis"`
	Prices        *domain.MetalPrices    `json:"prices_per_gram,omitempty"`
	Nisab         decimal.Decimal        `json:"nisab"`
	Screening     domain.ScreeningResult `json:"screening"`
	DeclaredDebts decimal.Decimal        `json:"declared_debts"`
	// NetWorth is the screened net minus declared debts, floored at zero.
	NetWorth decimal.Decimal `json:"net_worth"`
	// Zakatable is the figure tested against the Nisab under Basis.
	Zakatable  decimal.Decimal      `json:"zakatable"`
	Verdict    domain.Verdict       `json:"verdict"`
	HalalScore int                  `json:"halal_score"`
	Hawl       *domain.HawlEstimate `json:"hawl,omitempty"`
}

// ZakatService ties pricing, screening and Hawl estimation into one report.
type ZakatService struct {
	l         *zap.Logger
	pricer    MetalPricer
	screener  Screener
	estimator HawlEstimator
	grams     domain.NisabGrams
}

// NewZakatService creates new ZakatService instance. Zero gram weights fall
// back to the 85 g gold / 595 g silver references.
func NewZakatService(l *zap.Logger, pricer MetalPricer, screener Screener, estimator HawlEstimator, grams domain.NisabGrams) *ZakatService {
	if l == nil {
		l = zap.NewNop()
	}
	defaults := domain.DefaultNisabGrams()
	if !grams.Gold.IsPositive() {
		grams.Gold = defaults.Gold
	}
	if !grams.Silver.IsPositive() {
		grams.Silver = defaults.Silver
	}

	return &ZakatService{
		l:         l,
		pricer:    pricer,
		screener:  screener,
		estimator: estimator,
		grams:     grams,
	}
}

// Calculate screens the wallet, applies declared debts and the chosen basis,
// and returns the verdict. Inputs are validated before any network call.
func (s *ZakatService) Calculate(ctx context.Context, req Request) (*Report, error) {
	if !domain.IsValidAddress(req.Address) {
		return nil, fmt.Errorf("%w: address %q is not a 0x-prefixed 20-byte hex string", domain.ErrInvalidInput, req.Address)
	}
	if req.Debts.IsNegative() {
		return nil, fmt.Errorf("%w: declared debts must not be negative", domain.ErrInvalidInput)
	}
	if req.Nisab.IsNegative() {
		return nil, fmt.Errorf("%w: nisab must not be negative", domain.ErrInvalidInput)
	}
	basis, err := ParseBasis(string(req.Basis))
	if err != nil {
		return nil, err
	}

	report := &Report{
		RequestID:     uuid.NewString(),
		Address:       req.Address,
		ChainID:       s.screener.ChainID(),
		Basis:         basis,
		DeclaredDebts: req.Debts,
	}
	l := s.l.With(
		zap.String("request_id", report.RequestID),
		zap.String("address", req.Address),
		zap.Int64("chain_id", report.ChainID),
	)

	var prices domain.MetalPrices
	g, gctx := errgroup.WithContext(ctx)
	if !req.Nisab.IsPositive() {
		g.Go(func() error {
			p, err := s.pricer.GetMetalPrices(gctx)
			if err != nil {
				return errors.Wrap(err, "metal prices")
			}
			prices = p
			return nil
		})
	}
	g.Go(func() error {
		res, err := s.screener.Screen(gctx, req.Address, req.Nisab)
		if err != nil {
			return err
		}
		report.Screening = res
		return nil
	})
	if err := g.Wait(); err != nil {
		l.Error("zakat calculation failed", zap.Error(err))
		return nil, err
	}

	if req.Nisab.IsPositive() {
		report.Nisab = req.Nisab
	} else {
		report.Prices = &prices
		report.Nisab = domain.NisabFromPrices(prices, s.grams)
	}

	// the screener only knew the override (or its default); re-evaluate
	// against the final threshold
	screened := domain.CalculateZakat(report.Screening.TotalNetUSD, report.Nisab)
	report.Screening.Nisab = report.Nisab
	report.Screening.Liable = screened.Liable
	report.Screening.AmountDue = screened.AmountDue
	report.Screening.Diagnostic = screened.Diagnostic

	report.NetWorth = decimal.Max(decimal.Zero, report.Screening.TotalNetUSD.Sub(req.Debts))
	report.Zakatable = report.NetWorth
	report.HalalScore = domain.HalalScore(report.Screening.AssetsUSD(), report.Screening.LiabilitiesUSD())

	if basis != BasisInstantaneous {
		estimate, err := s.estimator.Estimate(ctx, req.Address, report.NetWorth)
		if err != nil {
			l.Error("hawl estimation failed", zap.Error(err))
			return nil, errors.Wrap(err, "hawl basis")
		}
		report.Hawl = &estimate

		hawl := estimate.Simple.Hawl
		if basis == BasisHawlMonthly {
			hawl = estimate.Monthly.Hawl
		}
		report.Zakatable = decimal.Min(report.NetWorth, hawl)
	}

	report.Verdict = domain.CalculateZakat(report.Zakatable, report.Nisab)

	l.Info("zakat calculated",
		zap.String("basis", string(basis)),
		zap.String("nisab", report.Nisab.StringFixed(2)),
		zap.String("net_worth", report.NetWorth.StringFixed(2)),
		zap.String("zakatable", report.Zakatable.StringFixed(2)),
		zap.Bool("liable", report.Verdict.Liable),
		zap.String("due", report.Verdict.AmountDue.StringFixed(2)),
	)

	return report, nil
}

// Hawl returns both advisory Hawl estimates, starting from the wallet's
// current screened net worth.
func (s *ZakatService) Hawl(ctx context.Context, address string) (domain.HawlEstimate, error) {
	if !domain.IsValidAddress(address) {
		return domain.HawlEstimate{}, fmt.Errorf("%w: address %q is not a 0x-prefixed 20-byte hex string", domain.ErrInvalidInput, address)
	}

	res, err := s.screener.Screen(ctx, address, decimal.Zero)
	if err != nil {
		return domain.HawlEstimate{}, err
	}

	estimate, err := s.estimator.Estimate(ctx, address, res.TotalNetUSD)
	if err != nil {
		return domain.HawlEstimate{}, errors.Wrap(err, "estimate hawl")
	}
	return estimate, nil
}

// Nisab returns today's threshold from live metal prices.
func (s *ZakatService) Nisab(ctx context.Context) (NisabReport, error) {
	prices, err := s.pricer.GetMetalPrices(ctx)
	if err != nil {
		return NisabReport{}, errors.Wrap(err, "metal prices")
	}

	return NisabReport{
		Prices:      prices,
		GoldGrams:   s.grams.Gold,
		SilverGrams: s.grams.Silver,
		Nisab:       domain.NisabFromPrices(prices, s.grams),
	}, nil
}
