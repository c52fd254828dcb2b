package classifier

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/zakat/internal/domain"
)

// CategoryCryptocurrency is the provider category of plain fungible tokens.
const CategoryCryptocurrency = "cryptocurrency"

// DefaultStablecoins symbols that are always liquid.
var DefaultStablecoins = []string{"USDC", "USDT", "DAI", "TUSD", "USDP", "GUSD", "LUSD"}

// DebtKeywords mark a row as a liability when found in its name, symbol or category.
var DebtKeywords = []string{"debt", "borrow", "loan", "liability"}

// LiquidityRule maps a matching row to a liquidity outcome.
type LiquidityRule struct {
	Name   string
	Match  func(domain.RawBalance) bool
	Liquid bool
}

// LiabilityRule marks a matching row as a debt position.
type LiabilityRule struct {
	Name  string
	Match func(domain.RawBalance) bool
}

// liquidityRules builds the ordered liquidity table; the last rule matches everything.
func liquidityRules(stablecoins []string, nativeSymbol string, threshold decimal.Decimal) []LiquidityRule {
	stable := make(map[string]struct{}, len(stablecoins))
	for _, s := range stablecoins {
		stable[s] = struct{}{}
	}

	return []LiquidityRule{
		{
			Name: "stablecoin",
			Match: func(r domain.RawBalance) bool {
				_, ok := stable[r.Symbol]
				return ok
			},
			Liquid: true,
		},
		{
			Name:   "native",
			Match:  func(r domain.RawBalance) bool { return r.Symbol == nativeSymbol },
			Liquid: true,
		},
		{
			Name: "valued cryptocurrency",
			Match: func(r domain.RawBalance) bool {
				return r.Category == CategoryCryptocurrency && r.Quote.GreaterThan(threshold)
			},
			Liquid: true,
		},
		{
			Name:   "illiquid",
			Match:  func(domain.RawBalance) bool { return true },
			Liquid: false,
		},
	}
}

func liabilityRules(keywords []string) []LiabilityRule {
	return []LiabilityRule{
		{
			Name: "debt keyword",
			Match: func(r domain.RawBalance) bool {
				fields := []string{strings.ToLower(r.Name), strings.ToLower(r.Symbol), strings.ToLower(r.Category)}
				for _, k := range keywords {
					for _, f := range fields {
						if strings.Contains(f, k) {
							return true
						}
					}
				}
				return false
			},
		},
		{
			Name:  "negative balance",
			Match: func(r domain.RawBalance) bool { return r.Balance.IsNegative() },
		},
	}
}
