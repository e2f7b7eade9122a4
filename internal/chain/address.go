package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned when a string is not a 20-byte hex address.
var ErrInvalidAddress = errors.New("invalid address")

// NormalizeAddress parses a hex address (with or without 0x, any letter case)
// and returns it in EIP-55 checksummed form.
func NormalizeAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %q is not a 20-byte hex string", ErrInvalidAddress, raw)
	}
	return common.HexToAddress(raw), nil
}

// ChecksumAddress is NormalizeAddress returning the string form.
func ChecksumAddress(raw string) (string, error) {
	addr, err := NormalizeAddress(raw)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}
