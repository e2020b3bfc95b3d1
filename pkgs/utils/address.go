package utils

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AddressLength is the byte length of a ledger account address.
const AddressLength = 32

// NormalizeAddress converts a wallet address into its canonical form:
// lowercase, 0x-prefixed and left-padded to 32 bytes. Short forms such as
// "0x2" expand the same way the ledger expands them.
func NormalizeAddress(addr string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(addr))
	if s == "" {
		return "", NewValidationError("wallet", "address is required")
	}
	s = strings.TrimPrefix(s, "0x")
	if s == "" || len(s) > AddressLength*2 {
		return "", NewValidationError("wallet", "address must be 1-64 hex characters")
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", NewValidationError("wallet", "address is not hex")
	}
	return hexutil.Encode(common.LeftPadBytes(raw, AddressLength)), nil
}

// MustNormalizeAddress is NormalizeAddress for trusted inputs such as config constants.
func MustNormalizeAddress(addr string) string {
	out, err := NormalizeAddress(addr)
	if err != nil {
		panic(err)
	}
	return out
}
