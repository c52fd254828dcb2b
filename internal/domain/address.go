package domain

import (
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

// BaseChainID is the Base mainnet chain identifier used when none is given.
const BaseChainID = 8453

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ParseAddress validates s and returns it as an address.
func ParseAddress(s string) (common.Address, error) {
	if !IsValidAddress(s) {
		return common.Address{}, fmt.Errorf("%w: address %q must be 0x followed by 40 hex characters", ErrInvalidInput, s)
	}
	return common.HexToAddress(s), nil
}
