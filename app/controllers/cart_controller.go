package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/apotek/app/services"
	"github.com/shashiranjanraj/apotek/pkg/bind"
	"github.com/shashiranjanraj/apotek/pkg/response"
)

type CartController struct {
	register *services.Register
}

func NewCartController(register *services.Register) *CartController {
	return &CartController{register: register}
}

type addItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"nullable,gte=1,lte=1000"`
}

type adjustItemRequest struct {
	Delta int `json:"delta" validate:"required,gte=-1000,lte=1000"`
}

// Show handles GET /api/kasir/cart.
func (c *CartController) Show(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	response.Success(w, c.register.ComputeTotals(who.ID))
}

// AddItem handles POST /api/kasir/cart/items.
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var body addItemRequest
	errs, err := bind.JSON(w, r, &body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	view, err := c.register.AddToCart(r.Context(), who.ID, body.ProductID, body.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, view)
}

// AdjustItem handles PATCH /api/kasir/cart/items/{productID}.
func (c *CartController) AdjustItem(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	productID, ok := uintParam(r, "productID")
	if !ok {
		response.NotFound(w)
		return
	}

	var body adjustItemRequest
	errs, err := bind.JSON(w, r, &body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	view, err := c.register.AdjustQuantity(who.ID, productID, body.Delta)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, view)
}

// RemoveItem handles DELETE /api/kasir/cart/items/{productID}.
func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	productID, ok := uintParam(r, "productID")
	if !ok {
		response.NotFound(w)
		return
	}

	view, err := c.register.RemoveFromCart(who.ID, productID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, view)
}

// Clear handles DELETE /api/kasir/cart.
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	if err := c.register.ClearCart(who.ID); err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, c.register.ComputeTotals(who.ID))
}
