package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorWithData(rec, http.StatusConflict, "Stok tidak cukup", map[string]int{"product_id": 2})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 409, body["status"])
	assert.Equal(t, "Stok tidak cukup", body["message"])
	assert.Equal(t, map[string]any{"product_id": float64(2)}, body["data"])
	assert.NotContains(t, body, "errors")
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{"customer_name": "required"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"status":422,"message":"Validation failed","errors":{"customer_name":"required"}}`, rec.Body.String())
}

func TestText(t *testing.T) {
	rec := httptest.NewRecorder()
	Text(rec, "=== STRUK PEMBAYARAN ===\n")
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "=== STRUK PEMBAYARAN ===\n", rec.Body.String())
}
