package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the reference unit every rate is expressed against.
const BaseCurrency = "USD"

var ErrUnknownCurrency = errors.New("unknown currency")

// CurrencyRate is the value of one unit of Code expressed in BaseCurrency.
type CurrencyRate struct {
	Code   string
	Factor decimal.Decimal
}

var currencyRates = map[string]CurrencyRate{
	"USD": {Code: "USD", Factor: decimal.NewFromInt(1)},
	"EUR": {Code: "EUR", Factor: decimal.RequireFromString("1.08")},
	"GBP": {Code: "GBP", Factor: decimal.RequireFromString("1.27")},
	"JPY": {Code: "JPY", Factor: decimal.RequireFromString("0.0067")},
	"CAD": {Code: "CAD", Factor: decimal.RequireFromString("0.74")},
	"AUD": {Code: "AUD", Factor: decimal.RequireFromString("0.66")},
	"CHF": {Code: "CHF", Factor: decimal.RequireFromString("1.13")},
	"CNY": {Code: "CNY", Factor: decimal.RequireFromString("0.14")},
	"INR": {Code: "INR", Factor: decimal.RequireFromString("0.012")},
	"VND": {Code: "VND", Factor: decimal.RequireFromString("0.00004")},
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LookupRate returns the rate for code (case-insensitive).
func LookupRate(code string) (CurrencyRate, error) {
	rate, ok := currencyRates[NormalizeCurrency(code)]
	if !ok {
		return CurrencyRate{}, ErrUnknownCurrency
	}
	return rate, nil
}

// IsSupportedCurrency reports whether code is in the rate table.
func IsSupportedCurrency(code string) bool {
	_, err := LookupRate(code)
	return err == nil
}

// ToBase converts amount expressed in r.Code into the base currency.
func (r CurrencyRate) ToBase(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.Factor)
}

// FromBase converts a base-currency amount into r.Code.
func (r CurrencyRate) FromBase(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(r.Factor)
}

// ConvertAmount converts amount between two table currencies via the base unit,
// rounded to AmountScale.
func ConvertAmount(from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	src, err := LookupRate(from)
	if err != nil {
		return decimal.Zero, err
	}
	dst, err := LookupRate(to)
	if err != nil {
		return decimal.Zero, err
	}
	if src.Code == dst.Code {
		return amount, nil
	}
	return dst.FromBase(src.ToBase(amount)).Round(AmountScale), nil
}
