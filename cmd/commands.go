package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/zakat/config"
	"github.com/vadiminshakov/zakat/internal/services"
	"github.com/vadiminshakov/zakat/internal/setup"
	"github.com/vadiminshakov/zakat/internal/web"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDecimalFlag(name, v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, v, err)
	}
	return d, nil
}

type calcFlags struct {
	debts string
	nisab string
	basis string
}

func (f *calcFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.debts, "debts", "", "debts not visible on chain, in USD")
	cmd.Flags().StringVar(&f.nisab, "nisab", "", "fixed Nisab in USD instead of the metal-derived one")
	cmd.Flags().StringVar(&f.basis, "basis", "", "instantaneous, hawl_monthly or hawl_simple (default from config)")
}

func (f *calcFlags) request(address, defaultBasis string) (services.Request, error) {
	debts, err := parseDecimalFlag("debts", f.debts)
	if err != nil {
		return services.Request{}, err
	}
	nisab, err := parseDecimalFlag("nisab", f.nisab)
	if err != nil {
		return services.Request{}, err
	}
	basis := f.basis
	if basis == "" {
		basis = defaultBasis
	}
	return services.Request{Address: address, Debts: debts, Nisab: nisab, Basis: services.Basis(basis)}, nil
}

func newScreenCmd(c *cli) *cobra.Command {
	var (
		flags  calcFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "screen <address>",
		Short: "screen a wallet and compute the Zakat due",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(); err != nil {
				return err
			}
			req, err := flags.request(args[0], c.app.Config.Basis)
			if err != nil {
				return err
			}

			report, err := c.app.Zakat.Calculate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintln(cmd.OutOrStdout(), setup.RenderReport(report))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newHawlCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "hawl <address>",
		Short: "estimate the balance held over the past lunar year (advisory)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(); err != nil {
				return err
			}
			estimate, err := c.app.Zakat.Hawl(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), estimate)
			}
			fmt.Fprintln(cmd.OutOrStdout(), setup.RenderHawl(estimate))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the estimate as JSON")
	return cmd
}

func newNisabCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "nisab",
		Short: "show today's Nisab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(); err != nil {
				return err
			}
			nisab, err := c.app.Zakat.Nisab(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), nisab)
			}
			fmt.Fprintln(cmd.OutOrStdout(), setup.RenderNisab(nisab))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newPayCmd(c *cli) *cobra.Command {
	var (
		flags  calcFlags
		amount string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "pay [address]",
		Short: "prepare the unsigned stablecoin transfer paying the Zakat due",
		Long:  "Screens address and prepares a transfer of the amount due, or of --amount when given. Nothing is signed or sent.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(); err != nil {
				return err
			}
			if c.app.Payments == nil {
				return fmt.Errorf("no beneficiary configured, run setup or set 'beneficiary' in the config")
			}

			due, err := parseDecimalFlag("amount", amount)
			if err != nil {
				return err
			}
			if amount == "" {
				if len(args) == 0 {
					return fmt.Errorf("either an address or --amount is required")
				}
				req, err := flags.request(args[0], c.app.Config.Basis)
				if err != nil {
					return err
				}
				report, err := c.app.Zakat.Calculate(cmd.Context(), req)
				if err != nil {
					return err
				}
				due = report.Verdict.AmountDue
			}

			call, err := c.app.Payments.Build(due)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), call)
			}
			fmt.Fprintln(cmd.OutOrStdout(), setup.RenderPayment(call))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&amount, "amount", "", "pay this USD amount instead of screening")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the call as JSON")
	return cmd
}

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.init(); err != nil {
				return err
			}
			cfg := c.app.Config

			var payments web.PaymentBuilder
			if c.app.Payments != nil {
				payments = c.app.Payments
			}
			srv := web.NewServer(cfg.ListenAddr, c.app.Zakat, payments, c.logger)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				if len(cfg.TLSDomains) > 0 {
					return srv.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.TLSCacheDir)
				}
				return srv.Start(ctx)
			})

			err := g.Wait()
			c.logger.Info("api stopped", zap.Error(err))
			return err
		},
	}
}

func newSetupCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "interactive configuration wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				path = config.DefaultPath
			}
			return setup.RunTUI(path)
		},
	}
}
