package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadiminshakov/zakat/internal/domain"
	"github.com/vadiminshakov/zakat/internal/services"
)

var (
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(highlight).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	labelStyle = lipgloss.NewStyle().Foreground(subtle).Width(18)
	dueStyle   = lipgloss.NewStyle().Bold(true).Foreground(special)
	debtStyle  = lipgloss.NewStyle().Foreground(warning)
	noteStyle  = lipgloss.NewStyle().Faint(true).Width(72)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// RenderReport formats a calculation for the terminal.
func RenderReport(r *services.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Zakat report") + "\n")
	b.WriteString(row("Wallet", r.Address) + "\n")
	b.WriteString(row("Chain", fmt.Sprint(r.ChainID)) + "\n")
	b.WriteString(row("Request", r.RequestID) + "\n\n")

	if len(r.Screening.Assets) > 0 {
		b.WriteString(titleStyle.Render("Assets") + "\n")
		for _, a := range r.Screening.Assets {
			b.WriteString(row(a.Symbol, "$"+a.USD.StringFixed(2)+"  "+a.Balance().String()+" "+a.Symbol) + "\n")
		}
		b.WriteString("\n")
	}
	if len(r.Screening.Liabilities) > 0 {
		b.WriteString(titleStyle.Render("Liabilities") + "\n")
		for _, l := range r.Screening.Liabilities {
			b.WriteString(row(l.Symbol, debtStyle.Render("-$"+l.USD.StringFixed(2))+"  "+l.Name) + "\n")
		}
		b.WriteString("\n")
	}

	if r.Prices != nil {
		b.WriteString(row("Gold / g", "$"+r.Prices.Gold.StringFixed(2)) + "\n")
		b.WriteString(row("Silver / g", "$"+r.Prices.Silver.StringFixed(4)) + "\n")
	}
	b.WriteString(row("Nisab", "$"+r.Nisab.StringFixed(2)) + "\n")
	if r.DeclaredDebts.IsPositive() {
		b.WriteString(row("Declared debts", debtStyle.Render("-$"+r.DeclaredDebts.StringFixed(2))) + "\n")
	}
	b.WriteString(row("Net worth", "$"+r.NetWorth.StringFixed(2)) + "\n")
	if r.Hawl != nil {
		b.WriteString(row("Zakatable", "$"+r.Zakatable.StringFixed(2)+" ("+string(r.Basis)+")") + "\n")
	}
	b.WriteString(row("Halal score", fmt.Sprintf("%d/100", r.HalalScore)) + "\n")

	if r.Verdict.Liable {
		b.WriteString(row("Zakat due", dueStyle.Render("$"+r.Verdict.AmountDue.StringFixed(2))) + "\n")
	} else {
		b.WriteString(row("Zakat due", "none") + "\n")
	}

	b.WriteString("\n" + noteStyle.Render(r.Verdict.Diagnostic))
	if r.Hawl != nil {
		b.WriteString("\n\n" + noteStyle.Render(r.Hawl.Note))
	}

	return boxStyle.Render(b.String())
}

// RenderHawl formats both Hawl estimates.
func RenderHawl(e domain.HawlEstimate) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Month-end balances") + "\n")
	for _, m := range e.Monthly.Months {
		b.WriteString(row(m.Month, "$"+m.USD.StringFixed(2)) + "\n")
	}
	b.WriteString(row("Monthly Hawl", "$"+e.Monthly.Hawl.StringFixed(2)) + "\n\n")

	b.WriteString(titleStyle.Render("One year back") + "\n")
	b.WriteString(row("Current", "$"+e.Simple.Current.StringFixed(2)) + "\n")
	b.WriteString(row("One year ago", "$"+e.Simple.OneYearAgo.StringFixed(2)) + "\n")
	b.WriteString(row("Simple Hawl", "$"+e.Simple.Hawl.StringFixed(2)) + "\n")
	b.WriteString(row("Change", "$"+e.Simple.PlusValue.StringFixed(2)) + "\n")

	b.WriteString("\n" + noteStyle.Render(e.Note))
	return boxStyle.Render(b.String())
}

// RenderNisab formats the current threshold.
func RenderNisab(n services.NisabReport) string {
	gold := n.Prices.Gold.Mul(n.GoldGrams)
	silver := n.Prices.Silver.Mul(n.SilverGrams)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Nisab") + "\n")
	b.WriteString(row("Gold", fmt.Sprintf("%s g x $%s = $%s", n.GoldGrams, n.Prices.Gold.StringFixed(2), gold.StringFixed(2))) + "\n")
	b.WriteString(row("Silver", fmt.Sprintf("%s g x $%s = $%s", n.SilverGrams, n.Prices.Silver.StringFixed(4), silver.StringFixed(2))) + "\n")
	b.WriteString(row("Nisab", dueStyle.Render("$"+n.Nisab.StringFixed(2))))
	return boxStyle.Render(b.String())
}

// RenderPayment formats an unsigned transfer call.
func RenderPayment(c *domain.PaymentCall) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Unsigned payment") + "\n")
	b.WriteString(row("Token", c.To.Hex()) + "\n")
	b.WriteString(row("Beneficiary", c.Beneficiary.Hex()) + "\n")
	b.WriteString(row("Amount", c.Amount.String()) + "\n")
	b.WriteString(row("Value", c.Value.String()) + "\n")
	b.WriteString(row("Data", c.Data.String()) + "\n\n")
	b.WriteString(noteStyle.Render("Sign and send this call from your wallet. Nothing has been broadcast."))
	return boxStyle.Render(b.String())
}
