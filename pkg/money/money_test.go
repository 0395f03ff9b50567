package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatIDR(t *testing.T) {
	idr := Lookup("idr", 0)

	cases := map[string]string{
		"0":         "Rp 0",
		"600":       "Rp 600",
		"6600":      "Rp 6.600",
		"1234567":   "Rp 1.234.567",
		"100.5":     "Rp 101",
		"-2500":     "-Rp 2.500",
		"999999.49": "Rp 999.999",
	}
	for in, want := range cases {
		assert.Equal(t, want, idr.Format(decimal.RequireFromString(in)), in)
	}
}

func TestFormatWithMinorUnits(t *testing.T) {
	usd := Lookup("USD", 2)
	assert.Equal(t, "$ 1,234.50", usd.Format(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$ 0.01", usd.Format(decimal.RequireFromString("0.005")))
}

func TestRoundHalfUp(t *testing.T) {
	idr := Lookup("IDR", 0)
	assert.True(t, idr.Round(decimal.RequireFromString("0.5")).Equal(decimal.NewFromInt(1)))
	assert.True(t, idr.Round(decimal.RequireFromString("0.49")).IsZero())
}

func TestUnknownCurrencyUsesCode(t *testing.T) {
	c := Lookup("myr", 2)
	assert.Equal(t, "MYR 10,00", c.Format(decimal.NewFromInt(10)))
}
