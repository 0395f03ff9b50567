package receipt

import (
	"testing"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/pricing"
	"github.com/shashiranjanraj/apotek/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleTx() domain.Transaction {
	return domain.Transaction{
		ID:           42,
		CreatedAt:    time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC),
		CashierID:    7,
		CashierName:  "Sari",
		CustomerName: "Budi",
		Lines: []domain.TransactionLine{
			{ProductID: 1, Name: "Paracetamol 500mg", UnitPrice: d("2000"), Quantity: 3, LineSubtotal: d("6000")},
		},
		Subtotal: d("6000"),
		Tax:      d("600"),
		Total:    d("6600"),
		Tendered: d("7000"),
		Change:   d("400"),
	}
}

func newFormatter(t *testing.T) *Formatter {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return NewFormatter(money.Lookup("IDR", 0), loc, pricing.DefaultPolicy())
}

func TestFormatProjectsStoredAmounts(t *testing.T) {
	v := newFormatter(t).Format(sampleTx())

	assert.Equal(t, uint(42), v.TransactionID)
	assert.Equal(t, "01/03/2026 09:30:00", v.Timestamp)
	assert.Equal(t, "Sari", v.Cashier)
	assert.Equal(t, "Budi", v.Customer)
	require.Len(t, v.Lines, 1)
	assert.Equal(t, "Rp 2.000", v.Lines[0].UnitPrice)
	assert.Equal(t, "Rp 6.000", v.Lines[0].Subtotal)
	assert.Equal(t, "Rp 6.000", v.Subtotal)
	assert.Equal(t, "Pajak (10%)", v.TaxLabel)
	assert.Equal(t, "Rp 600", v.Tax)
	assert.Equal(t, "Rp 6.600", v.Total)
	assert.Equal(t, "Rp 7.000", v.Tendered)
	assert.Equal(t, "Rp 400", v.Change)
}

func TestFormatIsDeterministic(t *testing.T) {
	f := newFormatter(t)
	tx := sampleTx()
	assert.Equal(t, f.Format(tx), f.Format(tx))
	assert.Equal(t, f.Format(tx).Text(), f.Format(tx).Text())
}

func TestTextSlip(t *testing.T) {
	text := newFormatter(t).Format(sampleTx()).Text()

	assert.Contains(t, text, "=== STRUK PEMBAYARAN ===")
	assert.Contains(t, text, "No. Transaksi: 42\n")
	assert.Contains(t, text, "3x Paracetamol 500mg @ Rp 2.000 = Rp 6.000\n")
	assert.Contains(t, text, "Pajak (10%): Rp 600\n")
	assert.Contains(t, text, "Tunai: Rp 7.000\n")
	assert.Contains(t, text, "Kembali: Rp 400\n")
	assert.Contains(t, text, "=== TERIMA KASIH ===")
}

func TestMissingCashierNameFallsBackToID(t *testing.T) {
	tx := sampleTx()
	tx.CashierName = ""
	assert.Equal(t, "#7", NewFormatter(money.Lookup("IDR", 0), nil, pricing.DefaultPolicy()).Format(tx).Cashier)
}
