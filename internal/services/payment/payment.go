// Package payment prepares the unsigned stablecoin transfer that pays Zakat.
// Signing and gas sponsorship are left to the user's wallet.
package payment

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/zakat/internal/domain"
)

const (
	// DefaultToken is native USDC on Base.
	DefaultToken = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	// DefaultTokenDecimals USDC precision.
	DefaultTokenDecimals = 6
)

const erc20TransferABI = `[{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"payable":false,"stateMutability":"nonpayable","type":"function"}]`

// Builder encodes ERC-20 transfers of the amount due to a fixed beneficiary.
type Builder struct {
	token       common.Address
	decimals    int32
	beneficiary common.Address
	erc20       abi.ABI
}

// NewBuilder validates the token and beneficiary addresses.
func NewBuilder(token, beneficiary string, decimals int32) (*Builder, error) {
	if token == "" {
		token = DefaultToken
	}
	if decimals <= 0 {
		decimals = DefaultTokenDecimals
	}

	tokenAddr, err := domain.ParseAddress(token)
	if err != nil {
		return nil, errors.Wrap(err, "payment token")
	}
	beneficiaryAddr, err := domain.ParseAddress(beneficiary)
	if err != nil {
		return nil, errors.Wrap(err, "payment beneficiary")
	}

	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse ERC-20 ABI")
	}

	return &Builder{
		token:       tokenAddr,
		decimals:    decimals,
		beneficiary: beneficiaryAddr,
		erc20:       parsed,
	}, nil
}

// Build returns the transfer call for amountUSD, truncated to token precision.
// The stablecoin is assumed to trade at par with USD.
func (b *Builder) Build(amountUSD decimal.Decimal) (*domain.PaymentCall, error) {
	amount := amountUSD.Truncate(b.decimals)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount %s", domain.ErrNothingToPay, amountUSD.String())
	}

	units := amount.Shift(b.decimals).BigInt()
	data, err := b.erc20.Pack("transfer", b.beneficiary, units)
	if err != nil {
		return nil, errors.Wrap(err, "encode ERC-20 transfer")
	}

	return &domain.PaymentCall{
		To:          b.token,
		Data:        hexutil.Bytes(data),
		Value:       (*hexutil.Big)(new(big.Int)),
		Amount:      amount,
		Beneficiary: b.beneficiary,
	}, nil
}
