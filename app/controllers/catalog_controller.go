package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/apotek/app/services"
	"github.com/shashiranjanraj/apotek/pkg/response"
)

type CatalogController struct {
	register *services.Register
}

func NewCatalogController(register *services.Register) *CatalogController {
	return &CatalogController{register: register}
}

// Index handles GET /api/kasir/obat.
func (c *CatalogController) Index(w http.ResponseWriter, r *http.Request) {
	products, err := c.register.Catalog(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, products)
}
