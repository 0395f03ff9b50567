package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/apotek/app/controllers"
	"github.com/shashiranjanraj/apotek/app/routes"
	"github.com/shashiranjanraj/apotek/app/services"
	"github.com/shashiranjanraj/apotek/pkg/metrics"
	"github.com/shashiranjanraj/apotek/pkg/middleware"
	"github.com/shashiranjanraj/apotek/pkg/reqid"
	"github.com/shashiranjanraj/apotek/pkg/response"
	"github.com/shashiranjanraj/apotek/pkg/router"
)

// NewRouter mounts the API over register and auth. A nil limiter skips
// rate limiting.
//
// Global middleware, outermost first:
//  1. metrics   total latency including panics
//  2. Recovery  turns a panic into a 500
//  3. reqid     request id before anything logs
//  4. Logger    one line per request with the id
//  5. CORS
//  6. RateLimit rejects abusers before auth work
func NewRouter(register *services.Register, auth *services.AuthService, limiter *middleware.Limiter) (*router.Router, error) {
	gql, err := controllers.NewGraphQLController(register)
	if err != nil {
		return nil, err
	}

	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
	)
	if limiter != nil {
		r.Use(middleware.RateLimit(limiter))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	routes.RegisterAPI(r, routes.Controllers{
		Auth:        controllers.NewAuthController(auth),
		Catalog:     controllers.NewCatalogController(register),
		Cart:        controllers.NewCartController(register),
		Transaction: controllers.NewTransactionController(register),
		GraphQL:     gql,
	})
	return r, nil
}
