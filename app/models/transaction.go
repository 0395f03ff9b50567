package models

import (
	"time"

	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shopspring/decimal"
)

// Transaction is a committed sale. Rows are insert-only. Money columns hold
// config.MaxMinorUnits decimals.
type Transaction struct {
	ID               uint              `gorm:"primaryKey"`
	CreatedAt        time.Time         `gorm:"not null;index:idx_transactions_cashier_created,priority:2"`
	CashierID        uint              `gorm:"not null;index:idx_transactions_cashier_created,priority:1"`
	CashierName      string            `gorm:"size:255"`
	CustomerName     string            `gorm:"size:255;not null"`
	Subtotal         decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	Tax              decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	Total            decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	Tendered         decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	Change           decimal.Decimal   `gorm:"column:change_amount;type:decimal(14,2);not null"`
	IdempotencyToken string            `gorm:"size:64;not null;uniqueIndex"`
	Items            []TransactionItem `gorm:"constraint:OnDelete:CASCADE"`
}

// TransactionItem is one sold line with its price snapshot.
type TransactionItem struct {
	ID            uint            `gorm:"primaryKey"`
	TransactionID uint            `gorm:"not null;index"`
	ProductID     uint            `gorm:"not null;index"`
	Name          string          `gorm:"size:255;not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Quantity      int             `gorm:"not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}

func TransactionFromDomain(tx domain.Transaction) Transaction {
	items := make([]TransactionItem, 0, len(tx.Lines))
	for _, l := range tx.Lines {
		items = append(items, TransactionItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.LineSubtotal,
		})
	}

	return Transaction{
		ID:               tx.ID,
		CreatedAt:        tx.CreatedAt,
		CashierID:        tx.CashierID,
		CashierName:      tx.CashierName,
		CustomerName:     tx.CustomerName,
		Subtotal:         tx.Subtotal,
		Tax:              tx.Tax,
		Total:            tx.Total,
		Tendered:         tx.Tendered,
		Change:           tx.Change,
		IdempotencyToken: tx.IdempotencyToken,
		Items:            items,
	}
}

func (t Transaction) ToDomain() domain.Transaction {
	lines := make([]domain.TransactionLine, 0, len(t.Items))
	for _, it := range t.Items {
		lines = append(lines, domain.TransactionLine{
			ProductID:    it.ProductID,
			Name:         it.Name,
			UnitPrice:    it.UnitPrice,
			Quantity:     it.Quantity,
			LineSubtotal: it.Subtotal,
		})
	}

	return domain.Transaction{
		ID:               t.ID,
		CreatedAt:        t.CreatedAt.UTC(),
		CashierID:        t.CashierID,
		CashierName:      t.CashierName,
		CustomerName:     t.CustomerName,
		Lines:            lines,
		Subtotal:         t.Subtotal,
		Tax:              t.Tax,
		Total:            t.Total,
		Tendered:         t.Tendered,
		Change:           t.Change,
		IdempotencyToken: t.IdempotencyToken,
	}
}
