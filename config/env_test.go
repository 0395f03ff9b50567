package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyMinorUnitsIsCappedAtColumnScale(t *testing.T) {
	prev := Get("CURRENCY_MINOR_UNITS", defaultMinorUnits)
	t.Cleanup(func() { Set("CURRENCY_MINOR_UNITS", prev) })

	cases := map[string]int32{
		"0":   0,
		"2":   2,
		"3":   MaxMinorUnits,
		"-1":  0,
		"abc": 0,
	}
	for raw, want := range cases {
		Set("CURRENCY_MINOR_UNITS", raw)
		assert.Equal(t, want, CurrencyMinorUnits(), raw)
	}
}
