package controllers

import (
	"net/http"
	"strings"

	"github.com/shashiranjanraj/apotek/app/services"
	"github.com/shashiranjanraj/apotek/pkg/bind"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/response"
	"github.com/shopspring/decimal"
)

// IdempotencyHeader carries the client's settlement attempt id.
const IdempotencyHeader = "Idempotency-Key"

type TransactionController struct {
	register *services.Register
}

func NewTransactionController(register *services.Register) *TransactionController {
	return &TransactionController{register: register}
}

type settleRequest struct {
	CustomerName     string           `json:"customer_name"     validate:"required,max=255"`
	PaymentAmount    *decimal.Decimal `json:"payment_amount"    validate:"required,gte=0"`
	IdempotencyToken string           `json:"idempotency_token" validate:"nullable,max=64"`
}

// Store handles POST /api/kasir/transaksi: settle the cashier's cart.
// Repeating the request with the same idempotency token returns the
// transaction committed by the first attempt.
func (c *TransactionController) Store(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}

	var body settleRequest
	errs, err := bind.JSON(w, r, &body)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	token := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if token == "" {
		token = strings.TrimSpace(body.IdempotencyToken)
	}

	tx, err := c.register.SubmitSettlement(r.Context(), who, services.Submission{
		CustomerName:     body.CustomerName,
		Tendered:         *body.PaymentAmount,
		IdempotencyToken: token,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	slip, err := c.register.GetReceipt(r.Context(), who, tx.ID)
	if err != nil {
		// The sale is committed; the receipt can be fetched again later.
		logger.WithCtx(r.Context()).Warn("receipt lookup after commit failed", "transaction_id", tx.ID, "error", err)
		response.Created(w, map[string]any{"transaction": tx})
		return
	}
	response.Created(w, map[string]any{"transaction": tx, "receipt": slip})
}

// CancelPending handles DELETE /api/kasir/transaksi/pending.
func (c *TransactionController) CancelPending(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	if err := c.register.CancelSettlement(who.ID); err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, map[string]string{"status": "cancelled"})
}

// Index handles GET /api/kasir/transaksi: today's sales of this cashier.
func (c *TransactionController) Index(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	list, err := c.register.GetHistory(r.Context(), who.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, list)
}

// Items handles GET /api/kasir/transaksi/{id}/items. Cashiers only see
// their own sales.
func (c *TransactionController) Items(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, ok := uintParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	lines, err := c.register.ExpandTransaction(r.Context(), who, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	response.Success(w, lines)
}

// Receipt handles GET /api/kasir/transaksi/{id}/receipt; ?format=text
// returns the printable slip.
func (c *TransactionController) Receipt(w http.ResponseWriter, r *http.Request) {
	who, ok := cashier(r)
	if !ok {
		response.Unauthorized(w)
		return
	}
	id, ok := uintParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	view, err := c.register.GetReceipt(r.Context(), who, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		response.Text(w, view.Text())
		return
	}
	response.Success(w, view)
}
