package flow

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Account and token identifiers share the ledger's dotted-triple shape.
var accountIDPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

var (
	ErrBadAccountID = errors.New("account id must look like 0.0.1234")
	ErrBadAmount    = errors.New("amount must be a positive number")
)

// ValidAccountID reports whether s is a well-formed shard.realm.number identifier.
func ValidAccountID(s string) bool {
	return accountIDPattern.MatchString(strings.TrimSpace(s))
}

// ParseAmount parses free-text input into a decimal amount, rejecting
// anything that is not strictly greater than zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrBadAmount
	}

	if !amount.IsPositive() {
		return decimal.Zero, ErrBadAmount
	}

	return amount, nil
}
