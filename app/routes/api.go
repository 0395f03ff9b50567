package routes

import (
	"net/http"

	"github.com/shashiranjanraj/apotek/app/controllers"
	"github.com/shashiranjanraj/apotek/app/models"
	"github.com/shashiranjanraj/apotek/pkg/metrics"
	"github.com/shashiranjanraj/apotek/pkg/middleware"
	"github.com/shashiranjanraj/apotek/pkg/rbac"
	"github.com/shashiranjanraj/apotek/pkg/response"
	"github.com/shashiranjanraj/apotek/pkg/router"
)

// Controllers is everything the API routes dispatch to.
type Controllers struct {
	Auth        *controllers.AuthController
	Catalog     *controllers.CatalogController
	Cart        *controllers.CartController
	Transaction *controllers.TransactionController
	GraphQL     *controllers.GraphQLController
}

func RegisterAPI(r *router.Router, c Controllers) {
	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Handle(http.MethodGet, "/metrics", "metrics", metrics.Handler())

	api := r.Group("/api")
	api.Post("/login", "auth.login", c.Auth.Login)

	staff := api.Group("", middleware.AuthMiddleware, rbac.HasRole(models.RoleKasir, models.RoleAdmin))
	staff.Post("/graphql", "graphql", c.GraphQL.Query)

	kasir := staff.Group("/kasir")
	kasir.Get("/obat", "kasir.obat.index", c.Catalog.Index)

	kasir.Get("/cart", "kasir.cart.show", c.Cart.Show)
	kasir.Delete("/cart", "kasir.cart.clear", c.Cart.Clear)
	kasir.Post("/cart/items", "kasir.cart.items.store", c.Cart.AddItem)
	kasir.Patch("/cart/items/{productID}", "kasir.cart.items.adjust", c.Cart.AdjustItem)
	kasir.Delete("/cart/items/{productID}", "kasir.cart.items.destroy", c.Cart.RemoveItem)

	kasir.Get("/transaksi", "kasir.transaksi.index", c.Transaction.Index)
	kasir.Post("/transaksi", "kasir.transaksi.store", c.Transaction.Store)
	kasir.Delete("/transaksi/pending", "kasir.transaksi.cancel", c.Transaction.CancelPending)
	kasir.Get("/transaksi/{id}/items", "kasir.transaksi.items", c.Transaction.Items)
	kasir.Get("/transaksi/{id}/receipt", "kasir.transaksi.receipt", c.Transaction.Receipt)
}
