package domain

import "github.com/shopspring/decimal"

// HawlAdvisory accompanies every Hawl estimate.
const HawlAdvisory = "Hawl estimates replay simple transfers only; swaps, fees, price changes and DeFi flows are not modelled. " +
	"Treat both figures as advisory."

// MonthlyBalanceSample reconstructed net USD at the end of one month.
type MonthlyBalanceSample struct {
	// Month in YYYY-MM form.
	Month string          `json:"date"`
	USD   decimal.Decimal `json:"value"`
}

// MonthlyHawl result of the forward month-by-month replay.
type MonthlyHawl struct {
	Months []MonthlyBalanceSample `json:"months"`
	Hawl   decimal.Decimal        `json:"hawl"`
}

// SimpleHawl result of the backward one-year reconstruction.
type SimpleHawl struct {
	Current    decimal.Decimal `json:"current"`
	OneYearAgo decimal.Decimal `json:"one_year_ago"`
	Hawl       decimal.Decimal `json:"hawl"`
	PlusValue  decimal.Decimal `json:"plus_value"`
}

// HawlEstimate bundles both advisory estimates for one wallet.
type HawlEstimate struct {
	Monthly MonthlyHawl `json:"monthly"`
	Simple  SimpleHawl  `json:"simple"`
	Note    string      `json:"note"`
}
