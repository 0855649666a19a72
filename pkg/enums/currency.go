package enums

import (
	"fmt"
	"strings"
)

// Currency represents supported monetary denominations for order balances.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyNGN Currency = "NGN"
	CurrencyKES Currency = "KES"
)

var validCurrencies = []Currency{
	CurrencyUSD,
	CurrencyNGN,
	CurrencyKES,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCurrency converts a raw string into a Currency. Gateways disagree on
// casing, so input is uppercased first.
func ParseCurrency(value string) (Currency, error) {
	normalized := strings.ToUpper(value)
	for _, candidate := range validCurrencies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
