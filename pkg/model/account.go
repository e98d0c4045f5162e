// Package model defines the core domain types for GoTeller.
package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const MaxAccountIDLength = 32

var ErrAccountIDEmpty = errors.New("account id must not be empty")
var ErrAccountIDTooLong = fmt.Errorf("account id must not exceed %d characters", MaxAccountIDLength)
var ErrAccountIDInvalidChars = errors.New("account id must contain only alphanumeric characters, underscores, or hyphens")
var ErrPINEmpty = errors.New("pin must not be empty")
var ErrNegativeBalance = errors.New("balance must not be negative")

// Account represents a provisioned bank account.
// Balance is a fixed-point decimal; its scale is preserved through
// arithmetic so rendered balances keep the precision they were
// provisioned with.
type Account struct {
	ID      string          `json:"id"`
	PIN     string          `json:"-"` // never serialized
	Balance decimal.Decimal `json:"balance"`
}

// Validate checks an account is well-formed for provisioning.
func (a *Account) Validate() error {
	if err := ValidateAccountID(a.ID); err != nil {
		return err
	}
	if a.PIN == "" {
		return ErrPINEmpty
	}
	if a.Balance.IsNegative() {
		return ErrNegativeBalance
	}
	return nil
}

// ValidateAccountID checks that an account id is 1-32 ASCII alphanumeric,
// underscore, or hyphen characters. Returns nil on success or a descriptive error.
func ValidateAccountID(id string) error {
	if len(id) == 0 {
		return ErrAccountIDEmpty
	}
	if len(id) > MaxAccountIDLength {
		return ErrAccountIDTooLong
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return ErrAccountIDInvalidChars
		}
	}
	return nil
}
