package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ZakatRate is the fixed share of zakatable wealth that is due.
var ZakatRate = decimal.RequireFromString("0.025")

const instantaneousCaveat = "Note: the calculation uses the current net balance (after detected DeFi debts). " +
	"Full compliance requires the minimum balance held over a lunar year, which needs the complete wallet history."

// Verdict is the outcome of comparing a net worth against the Nisab.
type Verdict struct {
	Liable     bool            `json:"is_liable"`
	AmountDue  decimal.Decimal `json:"zakat_due"`
	Diagnostic string          `json:"diagnostic"`
}

// CalculateZakat applies the Nisab test and the 2.5% rate to netWorth.
// Negative net worth is treated as zero.
func CalculateZakat(netWorth, nisab decimal.Decimal) Verdict {
	if netWorth.IsNegative() {
		netWorth = decimal.Zero
	}

	if netWorth.LessThan(nisab) {
		return Verdict{
			Liable:     false,
			AmountDue:  decimal.Zero,
			Diagnostic: fmt.Sprintf("Zakat is not due: net worth $%s is below the Nisab of $%s.\n\n%s", netWorth.StringFixed(2), nisab.StringFixed(2), instantaneousCaveat),
		}
	}

	due := netWorth.Mul(ZakatRate)
	return Verdict{
		Liable:     true,
		AmountDue:  due,
		Diagnostic: fmt.Sprintf("Zakat is due. Amount owed: $%s\n\n%s", due.StringFixed(2), instantaneousCaveat),
	}
}

// ScreeningResult aggregate output of one wallet screening.
type ScreeningResult struct {
	TotalNetUSD decimal.Decimal   `json:"total_net_usd"`
	Nisab       decimal.Decimal   `json:"nisab"`
	Assets      []AssetRecord     `json:"assets"`
	Liabilities []LiabilityRecord `json:"liabilities"`
	Liable      bool              `json:"is_liable"`
	AmountDue   decimal.Decimal   `json:"zakat_due"`
	Diagnostic  string            `json:"diagnostic"`
}

// AssetsUSD sums the USD value of the included assets.
func (r ScreeningResult) AssetsUSD() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Assets {
		total = total.Add(a.USD)
	}
	return total
}

// LiabilitiesUSD sums the detected liability magnitudes.
func (r ScreeningResult) LiabilitiesUSD() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Liabilities {
		total = total.Add(l.USD)
	}
	return total
}

// HalalScore rates a wallet from 0 to 100 by the share of its screened value
// that is not offset by debt positions. An empty wallet scores 100.
func HalalScore(assetsUSD, liabilitiesUSD decimal.Decimal) int {
	assetsUSD = decimal.Max(assetsUSD, decimal.Zero)
	liabilitiesUSD = decimal.Max(liabilitiesUSD, decimal.Zero)

	total := assetsUSD.Add(liabilitiesUSD)
	if total.IsZero() {
		return 100
	}
	return int(assetsUSD.Div(total).Shift(2).IntPart())
}
