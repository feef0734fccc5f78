// Package core holds the domain model shared by the ledger, the account
// sharing service and the conversation handlers.
//
// This file contains amount parsing for free-text user input.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts free-text user input to a decimal amount.
//
// It accepts both dot (12.50) and comma (12,50) decimal separators and
// ignores spaces, so grouped input like "1 234,56" parses to 1234.56.
// Returns ErrInvalidAmount for anything unparseable or non-positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "") // non-breaking spaces from mobile keyboards
	s = strings.ReplaceAll(s, ",", ".")

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}
