// Package domain defines the value types and pure rules of Zakat screening.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RawBalance is one balance row as reported by the indexing provider.
type RawBalance struct {
	Symbol          string
	Name            string
	Category        string
	Balance         decimal.Decimal
	Decimals        int32
	Quote           decimal.Decimal
	ContractAddress string
	LogoURL         string
	// Complete is false when the provider row lacked one of the expected fields.
	Complete bool
}

// AssetRecord is a classified balance entry of a wallet on one chain.
type AssetRecord struct {
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	ContractAddress string          `json:"contract_address"`
	Decimals        int32           `json:"decimals"`
	RawBalance      decimal.Decimal `json:"raw_balance"`
	USD             decimal.Decimal `json:"usd"`
	LogoURL         string          `json:"logo_url,omitempty"`
	Category        string          `json:"type"`
	Liquid          bool            `json:"is_liquid"`
}

// NewAssetRecord builds an AssetRecord from a provider row.
func NewAssetRecord(raw RawBalance, liquid bool) AssetRecord {
	return AssetRecord{
		Symbol:          raw.Symbol,
		Name:            raw.Name,
		ContractAddress: raw.ContractAddress,
		Decimals:        raw.Decimals,
		RawBalance:      raw.Balance,
		USD:             raw.Quote,
		LogoURL:         raw.LogoURL,
		Category:        raw.Category,
		Liquid:          liquid,
	}
}

// Balance returns the human-scaled balance, raw / 10^decimals.
func (a AssetRecord) Balance() decimal.Decimal {
	return a.RawBalance.Shift(-a.Decimals)
}

// LiabilityRecord is a detected debt position.
type LiabilityRecord struct {
	Name     string          `json:"name"`
	Symbol   string          `json:"symbol"`
	Category string          `json:"type"`
	USD      decimal.Decimal `json:"usd"`
}

// NewLiabilityRecord builds a LiabilityRecord; the USD quote is stored as a positive magnitude.
func NewLiabilityRecord(raw RawBalance) LiabilityRecord {
	return LiabilityRecord{
		Name:     raw.Name,
		Symbol:   raw.Symbol,
		Category: raw.Category,
		USD:      raw.Quote.Abs(),
	}
}

// Transfer is one value transfer touching a wallet.
type Transfer struct {
	Timestamp time.Time
	From      common.Address
	To        common.Address
	USD       decimal.Decimal
}
