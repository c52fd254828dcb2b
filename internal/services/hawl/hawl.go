// Package hawl estimates the minimum balance held over the trailing year from
// a wallet's transfer history. Both estimators only model plain transfers and
// are advisory.
package hawl

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/zakat/internal/domain"
)

const (
	monthsInWindow = 12
	monthLayout    = "2006-01"
)

type transferProvider interface {
	Transfers(ctx context.Context, address common.Address, chainID int64, since time.Time) ([]domain.Transfer, error)
}

// Estimator fetches transfer history once and runs both estimators over it.
type Estimator struct {
	provider transferProvider
	chainID  int64
	now      func() time.Time
	logger   *zap.Logger
}

func NewEstimator(provider transferProvider, chainID int64, logger *zap.Logger) *Estimator {
	if chainID == 0 {
		chainID = domain.BaseChainID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{provider: provider, chainID: chainID, now: time.Now, logger: logger}
}

// Estimate returns both Hawl estimates for address. current is the wallet's
// present net worth, the starting point of the backward reconstruction.
func (e *Estimator) Estimate(ctx context.Context, address string, current decimal.Decimal) (domain.HawlEstimate, error) {
	addr, err := domain.ParseAddress(address)
	if err != nil {
		return domain.HawlEstimate{}, err
	}

	now := e.now().UTC()
	transfers, err := e.provider.Transfers(ctx, addr, e.chainID, oneYearBefore(now))
	if err != nil {
		return domain.HawlEstimate{}, errors.Wrap(err, "hawl transfer history")
	}

	estimate := domain.HawlEstimate{
		Monthly: MonthlyReplay(transfers, addr, now),
		Simple:  ComputeHawlSimple(current, transfers, addr, now),
		Note:    domain.HawlAdvisory,
	}

	e.logger.Debug("hawl estimated",
		zap.String("address", addr.Hex()),
		zap.Int("transfers", len(transfers)),
		zap.String("monthly_hawl", estimate.Monthly.Hawl.String()),
		zap.String("simple_hawl", estimate.Simple.Hawl.String()),
	)

	return estimate, nil
}

// MonthlyReplay replays the signed USD value of transfers month by month over
// the trailing 12 calendar months (the current month included), starting from
// zero. Each month-end snapshot is floored at zero; the Hawl is the lowest one.
func MonthlyReplay(transfers []domain.Transfer, address common.Address, now time.Time) domain.MonthlyHawl {
	now = now.UTC()

	netByMonth := make(map[string]decimal.Decimal)
	for _, tx := range transfers {
		if !tx.USD.IsPositive() {
			continue
		}
		month := tx.Timestamp.UTC().Format(monthLayout)
		switch address {
		case tx.To:
			netByMonth[month] = netByMonth[month].Add(tx.USD)
		case tx.From:
			netByMonth[month] = netByMonth[month].Sub(tx.USD)
		}
	}

	months := make([]domain.MonthlyBalanceSample, 0, monthsInWindow)
	running := decimal.Zero
	for i := monthsInWindow - 1; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
		running = running.Add(netByMonth[month])
		months = append(months, domain.MonthlyBalanceSample{
			Month: month,
			USD:   decimal.Max(decimal.Zero, running),
		})
	}

	hawl := months[0].USD
	for _, m := range months[1:] {
		hawl = decimal.Min(hawl, m.USD)
	}

	return domain.MonthlyHawl{Months: months, Hawl: hawl}
}

// ComputeHawlSimple walks back from the current net worth through the last
// year of transfers: inbound value is removed and outbound value added back to
// approximate the balance a year ago.
func ComputeHawlSimple(current decimal.Decimal, transfers []domain.Transfer, address common.Address, now time.Time) domain.SimpleHawl {
	cutoff := oneYearBefore(now.UTC())

	yearAgo := current
	for _, tx := range transfers {
		if !tx.Timestamp.After(cutoff) {
			continue
		}
		if tx.To == address {
			yearAgo = yearAgo.Sub(tx.USD)
		}
		if tx.From == address {
			yearAgo = yearAgo.Add(tx.USD)
		}
	}
	yearAgo = decimal.Max(decimal.Zero, yearAgo)

	return domain.SimpleHawl{
		Current:    current,
		OneYearAgo: yearAgo,
		Hawl:       decimal.Min(current, yearAgo),
		PlusValue:  current.Sub(yearAgo),
	}
}

// oneYearBefore returns midnight of the same calendar day one year earlier.
func oneYearBefore(now time.Time) time.Time {
	return time.Date(now.Year()-1, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
