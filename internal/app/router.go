package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/velomart-erp/velomart-erp/internal/catalog"
	"github.com/velomart-erp/velomart-erp/internal/masterdata/brands"
	"github.com/velomart-erp/velomart-erp/internal/masterdata/categories"
	"github.com/velomart-erp/velomart-erp/internal/masterdata/suppliers"
	"github.com/velomart-erp/velomart-erp/internal/observability"
	"github.com/velomart-erp/velomart-erp/internal/orders"
	"github.com/velomart-erp/velomart-erp/internal/receiving"
	"github.com/velomart-erp/velomart-erp/internal/settings"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	CatalogHandler    *catalog.Handler
	CategoriesHandler *categories.Handler
	BrandsHandler     *brands.Handler
	SuppliersHandler  *suppliers.Handler
	SettingsHandler   *settings.Handler
	ReceivingHandler  *receiving.Handler
	OrdersHandler     *orders.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Velomart defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.CatalogHandler != nil {
		r.Route("/catalog", params.CatalogHandler.MountRoutes)
	}
	if params.CategoriesHandler != nil || params.BrandsHandler != nil || params.SuppliersHandler != nil {
		r.Route("/masterdata", func(r chi.Router) {
			if params.CategoriesHandler != nil {
				params.CategoriesHandler.MountRoutes(r)
			}
			if params.BrandsHandler != nil {
				params.BrandsHandler.MountRoutes(r)
			}
			if params.SuppliersHandler != nil {
				params.SuppliersHandler.MountRoutes(r)
			}
		})
	}
	if params.SettingsHandler != nil {
		r.Route("/settings", params.SettingsHandler.MountRoutes)
	}
	if params.ReceivingHandler != nil {
		r.Route("/receiving", params.ReceivingHandler.MountRoutes)
	}
	if params.OrdersHandler != nil {
		r.Route("/orders", params.OrdersHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
