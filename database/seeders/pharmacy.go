package seeders

import (
	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/shashiranjanraj/apotek/config"
	"github.com/shashiranjanraj/apotek/pkg/auth"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	Register("users", SeedUsers)
	Register("obat", SeedProducts)
}

var starterProducts = []models.Product{
	{Name: "Paracetamol 500mg", SKU: "OBT-0001", Price: decimal.NewFromInt(2000), Stock: 200, Description: "Strip isi 10 tablet"},
	{Name: "Amoxicillin 500mg", SKU: "OBT-0002", Price: decimal.NewFromInt(8000), Stock: 120, Description: "Strip isi 10 kapsul"},
	{Name: "Ibuprofen 400mg", SKU: "OBT-0003", Price: decimal.NewFromInt(5000), Stock: 150},
	{Name: "Antasida Doen", SKU: "OBT-0004", Price: decimal.NewFromInt(3500), Stock: 90},
	{Name: "Vitamin C 1000mg", SKU: "OBT-0005", Price: decimal.NewFromInt(15000), Stock: 60},
	{Name: "OBH Sirup 100ml", SKU: "OBT-0006", Price: decimal.NewFromInt(18500), Stock: 40},
	{Name: "Oralit", SKU: "OBT-0007", Price: decimal.NewFromInt(1500), Stock: 0},
}

// SeedProducts inserts the starter catalog; products whose SKU already
// exists are left untouched.
func SeedProducts(db *gorm.DB) error {
	for _, p := range starterProducts {
		row := p
		if err := db.Where(models.Product{SKU: p.SKU}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedUsers creates one admin and one cashier. The password comes from
// SEED_PASSWORD and defaults to "password".
func SeedUsers(db *gorm.DB) error {
	hash, err := auth.HashPassword(config.Get("SEED_PASSWORD", "password"))
	if err != nil {
		return err
	}

	users := []models.User{
		{Name: "Admin Apotek", Email: "admin@apotek.test", Role: models.RoleAdmin, Password: hash},
		{Name: "Kasir Satu", Email: "kasir@apotek.test", Role: models.RoleKasir, Password: hash},
	}
	for _, u := range users {
		row := u
		if err := db.Where(models.User{Email: u.Email}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
