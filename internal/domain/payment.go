package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// PaymentCall is an unsigned contract call in the shape wallets accept for
// batched, sponsorable sends.
type PaymentCall struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *hexutil.Big   `json:"value"`
	// Amount is the token amount in whole units, after truncation to token precision.
	Amount      decimal.Decimal `json:"amount"`
	Beneficiary common.Address  `json:"beneficiary"`
}
