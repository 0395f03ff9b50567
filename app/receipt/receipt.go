// Package receipt projects a committed transaction into the printable slip
// handed to the customer.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/pricing"
	"github.com/shashiranjanraj/apotek/pkg/money"
)

const timeLayout = "02/01/2006 15:04:05"

// Line is one formatted item row.
type Line struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// View is the display form of a transaction. Amounts are already formatted.
type View struct {
	TransactionID uint   `json:"transaction_id"`
	Timestamp     string `json:"timestamp"`
	Cashier       string `json:"cashier"`
	Customer      string `json:"customer"`
	Lines         []Line `json:"lines"`
	Subtotal      string `json:"subtotal"`
	TaxLabel      string `json:"tax_label"`
	Tax           string `json:"tax"`
	Total         string `json:"total"`
	Tendered      string `json:"tendered"`
	Change        string `json:"change"`
}

// Formatter renders transactions for one currency and time zone.
type Formatter struct {
	currency money.Currency
	loc      *time.Location
	taxLabel string
}

// NewFormatter builds a Formatter. A nil loc prints timestamps in UTC.
func NewFormatter(currency money.Currency, loc *time.Location, policy pricing.Policy) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{
		currency: currency,
		loc:      loc,
		taxLabel: fmt.Sprintf("Pajak (%s)", policy.TaxPercent()),
	}
}

// Format reads only the stored transaction; it never consults the catalog,
// so later price edits cannot change a printed receipt.
func (f *Formatter) Format(tx domain.Transaction) View {
	v := View{
		TransactionID: tx.ID,
		Timestamp:     tx.CreatedAt.In(f.loc).Format(timeLayout),
		Cashier:       tx.CashierName,
		Customer:      tx.CustomerName,
		Lines:         make([]Line, 0, len(tx.Lines)),
		Subtotal:      f.currency.Format(tx.Subtotal),
		TaxLabel:      f.taxLabel,
		Tax:           f.currency.Format(tx.Tax),
		Total:         f.currency.Format(tx.Total),
		Tendered:      f.currency.Format(tx.Tendered),
		Change:        f.currency.Format(tx.Change),
	}
	if v.Cashier == "" {
		v.Cashier = fmt.Sprintf("#%d", tx.CashierID)
	}

	for _, l := range tx.Lines {
		v.Lines = append(v.Lines, Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: f.currency.Format(l.UnitPrice),
			Subtotal:  f.currency.Format(l.LineSubtotal),
		})
	}
	return v
}

const rule = "----------------------------"

// Text renders the slip as plain text, one field per line.
func (v View) Text() string {
	var b strings.Builder

	b.WriteString("=== STRUK PEMBAYARAN ===\n")
	fmt.Fprintf(&b, "No. Transaksi: %d\n", v.TransactionID)
	fmt.Fprintf(&b, "Tanggal: %s\n", v.Timestamp)
	fmt.Fprintf(&b, "Kasir: %s\n", v.Cashier)
	fmt.Fprintf(&b, "Nama Pelanggan: %s\n", v.Customer)
	b.WriteString(rule + "\n")
	b.WriteString("Item:\n")
	for _, l := range v.Lines {
		fmt.Fprintf(&b, "%dx %s @ %s = %s\n", l.Quantity, l.Name, l.UnitPrice, l.Subtotal)
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", v.Subtotal)
	fmt.Fprintf(&b, "%s: %s\n", v.TaxLabel, v.Tax)
	fmt.Fprintf(&b, "Total: %s\n", v.Total)
	fmt.Fprintf(&b, "Tunai: %s\n", v.Tendered)
	fmt.Fprintf(&b, "Kembali: %s\n", v.Change)
	b.WriteString("=== TERIMA KASIH ===\n")

	return b.String()
}
