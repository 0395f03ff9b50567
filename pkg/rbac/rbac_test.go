package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shashiranjanraj/apotek/pkg/middleware"
	"github.com/stretchr/testify/assert"
)

func TestHasRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := HasRole("kasir", "admin")(ok)

	cases := []struct {
		name string
		id   *middleware.Identity
		want int
	}{
		{"kasir", &middleware.Identity{UserID: 1, Role: "kasir"}, http.StatusNoContent},
		{"admin", &middleware.Identity{UserID: 2, Role: "admin"}, http.StatusNoContent},
		{"other role", &middleware.Identity{UserID: 3, Role: "gudang"}, http.StatusForbidden},
		{"anonymous", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/kasir/obat", nil)
			if tc.id != nil {
				req = req.WithContext(middleware.WithIdentity(req.Context(), *tc.id))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
