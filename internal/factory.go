// Package internal wires configuration into the screening services.
package internal

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/zakat/config"
	"github.com/vadiminshakov/zakat/internal/clients"
	"github.com/vadiminshakov/zakat/internal/domain"
	"github.com/vadiminshakov/zakat/internal/services"
	"github.com/vadiminshakov/zakat/internal/services/classifier"
	"github.com/vadiminshakov/zakat/internal/services/hawl"
	"github.com/vadiminshakov/zakat/internal/services/payment"
	"github.com/vadiminshakov/zakat/internal/services/pricer"
	"github.com/vadiminshakov/zakat/internal/services/provider"
	"github.com/vadiminshakov/zakat/internal/services/screening"
)

// App holds the services built from one configuration.
type App struct {
	Config   config.Config
	Zakat    *services.ZakatService
	Screener *screening.Screener
	// Payments is nil when no beneficiary is configured.
	Payments *payment.Builder
}

// NewApp builds every service described by cfg. Nothing is dialled here.
func NewApp(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	covalent := clients.NewCovalentClient(cfg.CovalentURL, cfg.CovalentAPIKey, cfg.CovalentTimeout, cfg.MaxRetries, logger)
	balances := provider.NewCovalentProvider(covalent, logger)

	cls := classifier.New(classifier.Config{
		NativeSymbol:       cfg.NativeSymbol,
		LiquidityThreshold: &cfg.LiquidityThreshold,
		DustThreshold:      &cfg.DustThreshold,
	})
	screener := screening.NewScreener(balances, cls, cfg.ChainID, logger).WithDefaultNisab(cfg.DefaultNisab)
	estimator := hawl.NewEstimator(balances, cfg.ChainID, logger)

	metalPricer, err := newMetalPricer(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Screener: screener,
		Zakat: services.NewZakatService(logger, metalPricer, screener, estimator, domain.NisabGrams{
			Gold:   cfg.GoldNisabGrams,
			Silver: cfg.SilverNisabGrams,
		}),
	}

	if cfg.Beneficiary != "" {
		app.Payments, err = payment.NewBuilder(cfg.PaymentToken, cfg.Beneficiary, cfg.PaymentTokenDecimals)
		if err != nil {
			return nil, errors.Wrap(err, "payment builder")
		}
	}

	return app, nil
}

// newMetalPricer is the single point of dispatch between price sources.
func newMetalPricer(cfg config.Config) (pricer.MetalPricer, error) {
	switch cfg.Pricer {
	case "", config.PricerStatic:
		return pricer.NewStaticPricer(cfg.GoldPricePerGram, cfg.SilverPricePerGram), nil
	case config.PricerMetalsAPI:
		if cfg.MetalsAPIKey == "" {
			return nil, fmt.Errorf("%s environment variable must be set for the %s pricer", config.EnvMetalsAPIKey, config.PricerMetalsAPI)
		}
		return pricer.NewMetalsAPIPricer(clients.NewMetalsClient(cfg.MetalsAPIURL, cfg.MetalsAPIKey)), nil
	default:
		return nil, fmt.Errorf("unsupported pricer: %s", cfg.Pricer)
	}
}
