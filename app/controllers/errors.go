package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shashiranjanraj/apotek/app/cart"
	"github.com/shashiranjanraj/apotek/app/catalog"
	"github.com/shashiranjanraj/apotek/app/services"
	"github.com/shashiranjanraj/apotek/app/settlement"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/middleware"
	"github.com/shashiranjanraj/apotek/pkg/response"
)

// respondError maps a domain error onto the response envelope. Every
// branch carries a message the cashier can act on.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *settlement.ValidationError
		perr *settlement.PaymentError
		serr *settlement.StockError
	)

	switch {
	case errors.As(err, &verr):
		response.ValidationError(w, verr.Fields)
	case errors.As(err, &perr):
		response.ErrorWithData(w, http.StatusUnprocessableEntity, "Payment amount does not cover the total", map[string]string{
			"total":     perr.Total.String(),
			"tendered":  perr.Tendered.String(),
			"shortfall": perr.Shortfall().String(),
		})
	case errors.As(err, &serr):
		response.ErrorWithData(w, http.StatusConflict, serr.Error(), map[string]any{
			"product_id": serr.ProductID,
			"name":       serr.Name,
			"requested":  serr.Requested,
		})
	case errors.Is(err, settlement.ErrSettlementInProgress):
		response.Error(w, http.StatusConflict, "A settlement is already in progress for this cart")
	case errors.Is(err, settlement.ErrConcurrencyConflict):
		response.Error(w, http.StatusConflict, "The sale collided with another update, please submit again")
	case errors.Is(err, settlement.ErrCancelled), errors.Is(err, cart.ErrCancelled):
		response.Error(w, http.StatusConflict, "The settlement was cancelled")
	case errors.Is(err, cart.ErrNotPending):
		response.Error(w, http.StatusConflict, "No settlement is pending")
	case errors.Is(err, cart.ErrCommitStarted):
		response.Error(w, http.StatusConflict, "The settlement is already being committed and can no longer be cancelled")
	case errors.Is(err, cart.ErrOutOfStock):
		response.Error(w, http.StatusConflict, "The product is out of stock")
	case errors.Is(err, cart.ErrInvalidQuantity):
		response.ValidationError(w, map[string]string{"quantity": "quantity must be at least 1"})
	case errors.Is(err, cart.ErrEmpty):
		response.ValidationError(w, map[string]string{"items": "cart is empty"})
	case errors.Is(err, cart.ErrLineNotFound):
		response.Error(w, http.StatusNotFound, "The product is not in the cart")
	case errors.Is(err, catalog.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, settlement.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, services.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, settlement.ErrPersistence):
		logger.WithCtx(r.Context()).Error("persistence failure", "error", err)
		response.Error(w, http.StatusServiceUnavailable, "The sale could not be saved, please retry with the same request")
	default:
		logger.WithCtx(r.Context()).Error("unhandled error", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// cashier returns the authenticated cashier; AuthMiddleware guarantees it
// on kasir routes.
func cashier(r *http.Request) (services.Cashier, bool) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok || id.UserID == 0 {
		return services.Cashier{}, false
	}
	return services.Cashier{ID: id.UserID, Name: id.Name, Role: id.Role}, true
}

func uintParam(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
