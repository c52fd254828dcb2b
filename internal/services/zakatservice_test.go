package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/zakat/internal/domain"
	"github.com/vadiminshakov/zakat/internal/services/classifier"
	"github.com/vadiminshakov/zakat/internal/services/pricer"
	"github.com/vadiminshakov/zakat/internal/services/screening"
)

const wallet = "0x1111111111111111111111111111111111111111"

type stubBalances struct {
	rows  []domain.RawBalance
	err   error
	calls atomic.Int32
}

func (s *stubBalances) Balances(context.Context, common.Address, int64) ([]domain.RawBalance, error) {
	s.calls.Add(1)
	return s.rows, s.err
}

type countingPricer struct {
	MetalPricer
	err   error
	calls atomic.Int32
}

func (p *countingPricer) GetMetalPrices(ctx context.Context) (domain.MetalPrices, error) {
	p.calls.Add(1)
	if p.err != nil {
		return domain.MetalPrices{}, p.err
	}
	return p.MetalPricer.GetMetalPrices(ctx)
}

type stubEstimator struct {
	estimate domain.HawlEstimate
	err      error
	current  decimal.Decimal
	calls    int
}

func (s *stubEstimator) Estimate(_ context.Context, _ string, current decimal.Decimal) (domain.HawlEstimate, error) {
	s.calls++
	s.current = current
	return s.estimate, s.err
}

func row(symbol, name, category, quote string) domain.RawBalance {
	return domain.RawBalance{
		Symbol:   symbol,
		Name:     name,
		Category: category,
		Balance:  decimal.NewFromInt(1),
		Quote:    decimal.RequireFromString(quote),
		Complete: true,
	}
}

// 1000 USDC, an NFT and a 200 USD borrow position: net 800.
func walletRows() []domain.RawBalance {
	return []domain.RawBalance{
		row("USDC", "USD Coin", "stablecoin", "1000"),
		row("PUNK", "CryptoPunks", "nft", "0"),
		row("cUSDC", "Compound Borrow", "cryptocurrency", "200"),
	}
}

type fixture struct {
	balances  *stubBalances
	pricer    *countingPricer
	estimator *stubEstimator
	svc       *ZakatService
}

func newFixture(rows []domain.RawBalance) *fixture {
	f := &fixture{
		balances: &stubBalances{rows: rows},
		// 75 * 85 = 6375 gold, 0.95 * 595 = 565.25 silver
		pricer:    &countingPricer{MetalPricer: pricer.NewStaticPricer(decimal.NewFromInt(75), decimal.RequireFromString("0.95"))},
		estimator: &stubEstimator{},
	}
	scr := screening.NewScreener(f.balances, classifier.New(classifier.Config{}), domain.BaseChainID, zap.NewNop())
	f.svc = NewZakatService(zap.NewNop(), f.pricer, scr, f.estimator, domain.NisabGrams{})
	return f
}

func TestZakatService_Calculate(t *testing.T) {
	tests := []struct {
		name        string
		debts       string
		expectNet   string
		expectDue   string
		expectLiabl bool
	}{
		{name: "no declared debts", debts: "0", expectNet: "800", expectDue: "20", expectLiabl: true},
		{name: "declared debts reduce net", debts: "100", expectNet: "700", expectDue: "17.5", expectLiabl: true},
		{name: "debts push below nisab", debts: "300", expectNet: "500", expectDue: "0", expectLiabl: false},
		{name: "debts exceed holdings", debts: "5000", expectNet: "0", expectDue: "0", expectLiabl: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(walletRows())
			report, err := f.svc.Calculate(context.Background(), Request{
				Address: wallet,
				Debts:   decimal.RequireFromString(tt.debts),
			})
			require.NoError(t, err)

			assert.NotEmpty(t, report.RequestID)
			assert.Equal(t, int64(domain.BaseChainID), report.ChainID)
			assert.Equal(t, BasisInstantaneous, report.Basis)
			assert.True(t, decimal.RequireFromString("565.25").Equal(report.Nisab), "nisab %s", report.Nisab)
			require.NotNil(t, report.Prices)
			assert.True(t, decimal.NewFromInt(800).Equal(report.Screening.TotalNetUSD))
			assert.True(t, decimal.RequireFromString(tt.expectNet).Equal(report.NetWorth), "net %s", report.NetWorth)
			assert.True(t, decimal.RequireFromString(tt.expectDue).Equal(report.Verdict.AmountDue), "due %s", report.Verdict.AmountDue)
			assert.Equal(t, tt.expectLiabl, report.Verdict.Liable)
			assert.Nil(t, report.Hawl)
			assert.Zero(t, f.estimator.calls)
		})
	}
}

func TestZakatService_ScreeningReevaluatedAgainstMetalNisab(t *testing.T) {
	// 520 is below the 565.25 silver nisab but above the 500 default
	f := newFixture([]domain.RawBalance{row("USDC", "USD Coin", "stablecoin", "520")})

	report, err := f.svc.Calculate(context.Background(), Request{Address: wallet})
	require.NoError(t, err)
	assert.False(t, report.Screening.Liable)
	assert.True(t, report.Nisab.Equal(report.Screening.Nisab))
	assert.False(t, report.Verdict.Liable)
}

func TestZakatService_NisabOverrideSkipsPricer(t *testing.T) {
	f := newFixture(walletRows())

	report, err := f.svc.Calculate(context.Background(), Request{Address: wallet, Nisab: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	assert.Zero(t, f.pricer.calls.Load())
	assert.Nil(t, report.Prices)
	assert.True(t, decimal.NewFromInt(1000).Equal(report.Nisab))
	assert.False(t, report.Verdict.Liable)
}

func TestZakatService_HawlBasis(t *testing.T) {
	estimate := domain.HawlEstimate{
		Monthly: domain.MonthlyHawl{Hawl: decimal.NewFromInt(300)},
		Simple:  domain.SimpleHawl{Hawl: decimal.NewFromInt(650)},
		Note:    domain.HawlAdvisory,
	}

	tests := []struct {
		basis           Basis
		expectZakatable string
		expectLiable    bool
	}{
		{basis: BasisHawlMonthly, expectZakatable: "300", expectLiable: false},
		{basis: BasisHawlSimple, expectZakatable: "650", expectLiable: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.basis), func(t *testing.T) {
			f := newFixture(walletRows())
			f.estimator.estimate = estimate

			report, err := f.svc.Calculate(context.Background(), Request{Address: wallet, Basis: tt.basis})
			require.NoError(t, err)

			require.NotNil(t, report.Hawl)
			assert.Equal(t, domain.HawlAdvisory, report.Hawl.Note)
			assert.True(t, decimal.NewFromInt(800).Equal(f.estimator.current), "estimator starts from the current net")
			assert.True(t, decimal.NewFromInt(800).Equal(report.NetWorth))
			assert.True(t, decimal.RequireFromString(tt.expectZakatable).Equal(report.Zakatable), "zakatable %s", report.Zakatable)
			assert.Equal(t, tt.expectLiable, report.Verdict.Liable)
		})
	}
}

func TestZakatService_HawlNeverRaisesZakatable(t *testing.T) {
	f := newFixture(walletRows())
	f.estimator.estimate = domain.HawlEstimate{Simple: domain.SimpleHawl{Hawl: decimal.NewFromInt(5000)}}

	report, err := f.svc.Calculate(context.Background(), Request{Address: wallet, Basis: BasisHawlSimple})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(800).Equal(report.Zakatable))
}

func TestZakatService_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "bad address", req: Request{Address: "0x12"}},
		{name: "negative debts", req: Request{Address: wallet, Debts: decimal.NewFromInt(-1)}},
		{name: "negative nisab", req: Request{Address: wallet, Nisab: decimal.NewFromInt(-1)}},
		{name: "unknown basis", req: Request{Address: wallet, Basis: "lunar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(walletRows())
			report, err := f.svc.Calculate(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, report)
			assert.Zero(t, f.balances.calls.Load())
			assert.Zero(t, f.pricer.calls.Load())
		})
	}
}

func TestZakatService_ProviderFailures(t *testing.T) {
	t.Run("balances", func(t *testing.T) {
		f := newFixture(nil)
		f.balances.err = errors.Wrap(domain.ErrProviderUnavailable, "timeout")

		_, err := f.svc.Calculate(context.Background(), Request{Address: wallet})
		assert.ErrorIs(t, err, domain.ErrScreeningFailed)
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})

	t.Run("prices", func(t *testing.T) {
		f := newFixture(walletRows())
		f.pricer.err = errors.Wrap(domain.ErrProviderUnavailable, "metals down")

		_, err := f.svc.Calculate(context.Background(), Request{Address: wallet})
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})

	t.Run("hawl", func(t *testing.T) {
		f := newFixture(walletRows())
		f.estimator.err = errors.Wrap(domain.ErrProviderUnavailable, "history down")

		_, err := f.svc.Calculate(context.Background(), Request{Address: wallet, Basis: BasisHawlMonthly})
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})
}

func TestZakatService_Hawl(t *testing.T) {
	f := newFixture(walletRows())
	f.estimator.estimate = domain.HawlEstimate{Note: domain.HawlAdvisory}

	estimate, err := f.svc.Hawl(context.Background(), wallet)
	require.NoError(t, err)
	assert.Equal(t, domain.HawlAdvisory, estimate.Note)
	assert.True(t, decimal.NewFromInt(800).Equal(f.estimator.current))

	_, err = f.svc.Hawl(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestZakatService_Nisab(t *testing.T) {
	f := newFixture(nil)

	nisab, err := f.svc.Nisab(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("565.25").Equal(nisab.Nisab))
	assert.True(t, domain.GoldNisabGrams.Equal(nisab.GoldGrams))
	assert.True(t, domain.SilverNisabGrams.Equal(nisab.SilverGrams))
}

func TestParseBasis(t *testing.T) {
	for in, want := range map[string]Basis{
		"":              BasisInstantaneous,
		"instantaneous": BasisInstantaneous,
		"hawl_monthly":  BasisHawlMonthly,
		"hawl_simple":   BasisHawlSimple,
	} {
		got, err := ParseBasis(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseBasis("yearly")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
