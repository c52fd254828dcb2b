// Package setup holds the terminal front end: the configuration wizard and
// the lipgloss renderers used by the CLI.
package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/zakat/config"
	"github.com/vadiminshakov/zakat/internal/domain"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF6B6B"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers collected by the wizard, all as typed.
type Answers struct {
	ChainID            string
	NativeSymbol       string
	Pricer             string
	GoldPricePerGram   string
	SilverPricePerGram string
	DustThreshold      string
	LiquidityThreshold string
	Basis              string
	Beneficiary        string
	ListenAddr         string
	TLSDomains         string
}

// DefaultAnswers pre-fills the wizard from the built-in defaults.
func DefaultAnswers() Answers {
	d := config.Default()
	return Answers{
		ChainID:            fmt.Sprint(d.ChainID),
		NativeSymbol:       d.NativeSymbol,
		Pricer:             d.Pricer,
		GoldPricePerGram:   d.GoldPricePerGram.String(),
		SilverPricePerGram: d.SilverPricePerGram.String(),
		DustThreshold:      d.DustThreshold.String(),
		LiquidityThreshold: d.LiquidityThreshold.String(),
		Basis:              d.Basis,
		ListenAddr:         d.ListenAddr,
	}
}

// ConfigTmp converts the answers to the on-disk config shape.
func (a Answers) ConfigTmp() config.ConfigTmp {
	tmp := config.ConfigTmp{
		ChainID:               strings.TrimSpace(a.ChainID),
		NativeSymbol:          strings.TrimSpace(a.NativeSymbol),
		Pricer:                a.Pricer,
		DustThresholdStr:      strings.TrimSpace(a.DustThreshold),
		LiquidityThresholdStr: strings.TrimSpace(a.LiquidityThreshold),
		Basis:                 a.Basis,
		Beneficiary:           strings.TrimSpace(a.Beneficiary),
		ListenAddr:            strings.TrimSpace(a.ListenAddr),
	}
	if a.Pricer == config.PricerStatic {
		tmp.GoldPricePerGramStr = strings.TrimSpace(a.GoldPricePerGram)
		tmp.SilverPricePerGramStr = strings.TrimSpace(a.SilverPricePerGram)
	}
	for _, d := range strings.Split(a.TLSDomains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			tmp.TLSDomains = append(tmp.TLSDomains, d)
		}
	}
	return tmp
}

func clearScreen(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("ZAKAT CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(step))
}

// RunTUI launches the terminal configuration wizard and writes path.
func RunTUI(path string) error {
	a := DefaultAnswers()
	var confirm bool

	clearScreen("STEP 1: CHAIN")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("API keys are read from " +
		config.EnvCovalentAPIKey + " and " + config.EnvMetalsAPIKey + ", never from the file.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Chain ID").
				Description("8453 is Base mainnet").
				Value(&a.ChainID).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Native token ticker").
				Value(&a.NativeSymbol),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen("STEP 2: METAL PRICES")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where do gold and silver prices come from?").
				Options(
					huh.NewOption("Fixed prices from this file", config.PricerStatic),
					huh.NewOption("Metals-API (live)", config.PricerMetalsAPI),
				).
				Value(&a.Pricer),
		),
	).Run()
	if err != nil {
		return err
	}

	if a.Pricer == config.PricerStatic {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Gold USD per gram").
					Value(&a.GoldPricePerGram).
					Validate(validateNonNegativeDecimal),
				huh.NewInput().
					Title("Silver USD per gram").
					Value(&a.SilverPricePerGram).
					Validate(validateNonNegativeDecimal),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	clearScreen("STEP 3: SCREENING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dust threshold (USD)").
				Description("Holdings worth this much or less are ignored").
				Value(&a.DustThreshold).
				Validate(validateNonNegativeDecimal),
			huh.NewInput().
				Title("Liquidity threshold (USD)").
				Description("Other cryptocurrencies must be quoted above this to count").
				Value(&a.LiquidityThreshold).
				Validate(validateNonNegativeDecimal),
			huh.NewSelect[string]().
				Title("Wealth basis").
				Options(
					huh.NewOption("Current balance", "instantaneous"),
					huh.NewOption("Lowest month-end balance over a year (advisory)", "hawl_monthly"),
					huh.NewOption("Lower of today and one year ago (advisory)", "hawl_simple"),
				).
				Value(&a.Basis),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen("STEP 4: PAYMENT AND API")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Beneficiary address").
				Description("Receiver of prepared USDC payments; leave empty to disable").
				Value(&a.Beneficiary).
				Validate(func(s string) error {
					if s != "" && !domain.IsValidAddress(s) {
						return fmt.Errorf("must be a 0x-prefixed 40 hex character address")
					}
					return nil
				}),
			huh.NewInput().
				Title("API listen address").
				Value(&a.ListenAddr),
			huh.NewInput().
				Title("TLS domains").
				Description("Comma separated; empty serves plain HTTP").
				Value(&a.TLSDomains),
		),
	).Run()
	if err != nil {
		return err
	}

	clearScreen("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Chain: %s (%s)\nPrices: %s\nDust: $%s  Liquidity: $%s\nBasis: %s\nBeneficiary: %s\n",
		a.ChainID, a.NativeSymbol, a.Pricer, a.DustThreshold, a.LiquidityThreshold, a.Basis, orNone(a.Beneficiary),
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := config.Save(path, a.ConfigTmp()); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return nil
}

func validatePositiveInt(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateNonNegativeDecimal(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
