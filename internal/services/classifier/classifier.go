// Package classifier labels provider balance rows as liquid or illiquid and
// as asset or liability using ordered rule tables.
package classifier

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/zakat/internal/domain"
)

var (
	// DefaultLiquidityThreshold minimum quote for a cryptocurrency row to count as liquid.
	DefaultLiquidityThreshold = decimal.NewFromInt(10)
	// DefaultDustThreshold rows quoted at or below this are never included.
	DefaultDustThreshold = decimal.RequireFromString("0.5")
)

// DefaultNativeSymbol native coin ticker of Base and Ethereum.
const DefaultNativeSymbol = "ETH"

// Config tunes the rule tables. Nil thresholds take the defaults; an explicit
// zero is honored.
type Config struct {
	NativeSymbol       string
	Stablecoins        []string
	LiquidityThreshold *decimal.Decimal
	DustThreshold      *decimal.Decimal
}

// Classification is the outcome for one provider row.
type Classification struct {
	Asset         domain.AssetRecord
	LiquidityRule string
	// Liability is set when the row is a debt position.
	Liability     *domain.LiabilityRecord
	LiabilityRule string
	// Included reports whether the row counts toward zakatable assets.
	Included bool
}

// Classifier applies the liquidity and liability tables.
type Classifier struct {
	liquidity     []LiquidityRule
	liabilities   []LiabilityRule
	dustThreshold decimal.Decimal
}

// New creates a classifier; unset config fields take the defaults.
func New(cfg Config) *Classifier {
	if cfg.NativeSymbol == "" {
		cfg.NativeSymbol = DefaultNativeSymbol
	}
	if len(cfg.Stablecoins) == 0 {
		cfg.Stablecoins = DefaultStablecoins
	}
	liquidity := DefaultLiquidityThreshold
	if cfg.LiquidityThreshold != nil {
		liquidity = *cfg.LiquidityThreshold
	}
	dust := DefaultDustThreshold
	if cfg.DustThreshold != nil {
		dust = *cfg.DustThreshold
	}

	return &Classifier{
		liquidity:     liquidityRules(cfg.Stablecoins, cfg.NativeSymbol, liquidity),
		liabilities:   liabilityRules(DebtKeywords),
		dustThreshold: dust,
	}
}

// LiquidityRules returns the ordered liquidity table.
func (c *Classifier) LiquidityRules() []LiquidityRule {
	return c.liquidity
}

// Classify labels one provider row. A row is included only when it is
// complete, not a liability, liquid and quoted above the dust threshold.
func (c *Classifier) Classify(raw domain.RawBalance) Classification {
	liquid, liquidityRule := c.liquid(raw)
	result := Classification{
		Asset:         domain.NewAssetRecord(raw, liquid),
		LiquidityRule: liquidityRule,
	}

	for _, rule := range c.liabilities {
		if rule.Match(raw) {
			liability := domain.NewLiabilityRecord(raw)
			result.Liability = &liability
			result.LiabilityRule = rule.Name
			break
		}
	}

	result.Included = raw.Complete &&
		result.Liability == nil &&
		liquid &&
		raw.Quote.GreaterThan(c.dustThreshold)

	return result
}

func (c *Classifier) liquid(raw domain.RawBalance) (bool, string) {
	for _, rule := range c.liquidity {
		if rule.Match(raw) {
			return rule.Liquid, rule.Name
		}
	}
	// unreachable: the last rule matches every row
	return false, ""
}
