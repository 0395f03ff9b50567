package models

import (
	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable medicine ("obat").
type Product struct {
	gorm.Model
	Name        string          `gorm:"size:255;not null;index"            json:"name"`
	Description string          `gorm:"type:text"                          json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null"        json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	SKU         string          `gorm:"size:100;index"                     json:"sku"`
}

func (p Product) ToDomain() domain.Product {
	return domain.Product{ID: p.ID, Name: p.Name, UnitPrice: p.Price, Stock: p.Stock}
}
