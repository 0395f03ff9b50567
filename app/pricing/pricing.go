// Package pricing derives subtotal, tax and total from cart lines.
//
// Line subtotals are exact (unit price × quantity). The only rounding step
// is the tax, which is rounded half-up to the currency precision, so
// total == subtotal + tax always holds exactly.
package pricing

import (
	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/config"
	"github.com/shopspring/decimal"
)

// Policy is the tax configuration handed to a Calculator.
type Policy struct {
	TaxRate    decimal.Decimal
	MinorUnits int32
}

// DefaultPolicy is a 10% tax on whole-rupiah amounts.
func DefaultPolicy() Policy {
	return Policy{TaxRate: decimal.NewFromInt(10).Div(decimal.NewFromInt(100)), MinorUnits: 0}
}

// PolicyFromConfig reads TAX_RATE and CURRENCY_MINOR_UNITS.
func PolicyFromConfig() Policy {
	return Policy{TaxRate: config.TaxRate(), MinorUnits: config.CurrencyMinorUnits()}
}

// TaxPercent renders the rate for labels, e.g. "10%".
func (p Policy) TaxPercent() string {
	return p.TaxRate.Mul(decimal.NewFromInt(100)).String() + "%"
}

// Calculator prices cart lines under one Policy.
type Calculator struct {
	policy Policy
}

func NewCalculator(p Policy) *Calculator {
	return &Calculator{policy: p}
}

func (c *Calculator) Policy() Policy { return c.policy }

// LineSubtotal is unit price × quantity, unrounded.
func (c *Calculator) LineSubtotal(l domain.CartLine) decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Price computes totals for lines. An empty slice prices to zero.
func (c *Calculator) Price(lines []domain.CartLine) domain.Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(c.LineSubtotal(l))
	}

	tax := subtotal.Mul(c.policy.TaxRate).Round(c.policy.MinorUnits)

	return domain.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
