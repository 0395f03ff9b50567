// Package money formats and rounds decimal amounts for a single currency.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency describes how amounts of one currency are rounded and printed.
type Currency struct {
	Code       string
	Symbol     string
	MinorUnits int32
	Thousands  string
	Decimal    string
}

var known = map[string]Currency{
	"IDR": {Code: "IDR", Symbol: "Rp", Thousands: ".", Decimal: ","},
	"USD": {Code: "USD", Symbol: "$", MinorUnits: 2, Thousands: ",", Decimal: "."},
	"EUR": {Code: "EUR", Symbol: "€", MinorUnits: 2, Thousands: ".", Decimal: ","},
}

// Lookup returns the currency for code with minorUnits decimals. Unknown
// codes print with the code as symbol and id-ID separators.
func Lookup(code string, minorUnits int32) Currency {
	c, ok := known[strings.ToUpper(code)]
	if !ok {
		c = Currency{Code: strings.ToUpper(code), Symbol: strings.ToUpper(code), Thousands: ".", Decimal: ","}
	}
	c.MinorUnits = minorUnits
	return c
}

// Round rounds d half-up (away from zero on ties) to the currency precision.
func (c Currency) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(c.MinorUnits)
}

// Format renders d like "Rp 6.600" or "$ 1,234.50".
func (c Currency) Format(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := c.Round(d.Abs()).StringFixed(c.MinorUnits)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(c.Symbol)
	b.WriteByte(' ')
	b.WriteString(group(intPart, c.Thousands))
	if frac != "" {
		b.WriteString(c.Decimal)
		b.WriteString(frac)
	}
	return b.String()
}

func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
