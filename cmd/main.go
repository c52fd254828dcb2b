// Command zakat screens an on-chain wallet and reports the Zakat it owes.
//
// Usage:
//
//	zakat screen 0x… [--debts 100] [--nisab 600] [--basis hawl_monthly]
//	zakat hawl 0x…
//	zakat nisab
//	zakat pay 0x… | zakat pay --amount 20
//	zakat serve
//	zakat setup
//
// Environment variables:
//
//	COVALENT_API_KEY  balance and transaction provider
//	METALS_API_KEY    live gold and silver prices (pricer: metals_api)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/zakat/config"
	"github.com/vadiminshakov/zakat/internal"
)

type cli struct {
	configPath string
	verbose    bool

	logger *zap.Logger
	app    *internal.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "zakat",
		Short:         "Zakat screening for on-chain wallets",
		Long:          "Screens the balances of a wallet, nets detected DeFi debts and compares the result against the Nisab.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to yaml config (default "+config.DefaultPath+" when present)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newScreenCmd(c),
		newHawlCmd(c),
		newNisabCmd(c),
		newPayCmd(c),
		newServeCmd(c),
		newSetupCmd(c),
	)
	return root
}

// init loads configuration and builds the services. Commands call it lazily
// so that setup works without a config file.
func (c *cli) init() error {
	if c.app != nil {
		return nil
	}

	var err error
	if c.verbose {
		c.logger, err = zap.NewDevelopment()
	} else {
		c.logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	path := c.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		}
	}

	cfg, err := config.Get(path)
	if err != nil {
		return fmt.Errorf("failed to get configuration: %w", err)
	}
	if cfg.CovalentAPIKey == "" {
		c.logger.Warn(config.EnvCovalentAPIKey + " is not set, requests will likely be rejected")
	}

	c.app, err = internal.NewApp(cfg, c.logger)
	return err
}
