package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/kasir/transaksi/{id}/receipt", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/kasir/transaksi/{id}/receipt", "418"))
	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/kasir/transaksi/"+id+"/receipt", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	after := testutil.ToFloat64(RequestTotal.WithLabelValues("GET", "/api/kasir/transaksi/{id}/receipt", "418"))
	assert.Equal(t, before+3, after)
}

func TestRecordSettlement(t *testing.T) {
	before := testutil.ToFloat64(SettlementsTotal.WithLabelValues("committed"))
	RecordSettlement("committed", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(SettlementsTotal.WithLabelValues("committed")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordQueueJob("archive_receipt", "success", time.Now())

	rec := httptest.NewRecorder()
	Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "apotek_queue_jobs_processed_total")
}
