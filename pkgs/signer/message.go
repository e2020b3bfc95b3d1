package signer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

// AmountScale converts whole reward units into the ledger's fixed-point integer.
const AmountScale = 1000

// MaxNameLength bounds names accepted by ChangeNameMessage.
const MaxNameLength = 32

var scale = decimal.NewFromInt(AmountScale)

// ScaleAmount multiplies amount by AmountScale and truncates toward zero.
func ScaleAmount(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", utils.NewValidationError("amount", "must not be negative")
	}
	return amount.Mul(scale).Truncate(0).String(), nil
}

// ClaimMessage builds "{scaledAmount}:{wallet}:{nonce}".
func ClaimMessage(amount decimal.Decimal, wallet string, nonce uint64) (string, error) {
	scaled, err := ScaleAmount(amount)
	if err != nil {
		return "", err
	}
	addr, err := utils.NormalizeAddress(wallet)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d", scaled, addr, nonce), nil
}

// ChangeNameMessage builds "{name}:{wallet}:{nonce}".
func ChangeNameMessage(name, wallet string, nonce uint64) (string, error) {
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxNameLength {
		return "", utils.NewValidationError("name", fmt.Sprintf("length must be between 1 and %d", MaxNameLength))
	}
	if strings.Contains(name, ":") {
		return "", utils.NewValidationError("name", "must not contain ':'")
	}
	addr, err := utils.NormalizeAddress(wallet)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d", name, addr, nonce), nil
}
