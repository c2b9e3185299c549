package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/auth"
	"github.com/meridian-erp/meridian-erp/internal/finance"
	"github.com/meridian-erp/meridian-erp/internal/gate"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/production"
	"github.com/meridian-erp/meridian-erp/internal/purchase"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/showroom"
	"github.com/meridian-erp/meridian-erp/internal/transport"
)

// RouterParams aggregates everything the HTTP router depends on.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Tokens *shared.TokenStore

	Auth       *auth.Handler
	Sales      *sales.Handler
	Transport  *transport.Handler
	Finance    *finance.Handler
	Gate       *gate.Handler
	Showroom   *showroom.Handler
	Production *production.Handler
	Purchase   *purchase.Handler
	Inventory  *inventory.Handler
}

// NewRouter assembles the middleware stack and mounts every department
// surface under /api.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Tokens: p.Tokens}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			p.Auth.MountRoutes(r, RequirePermission)
		})
		r.Route("/sales", func(r chi.Router) {
			p.Sales.MountRoutes(r, RequirePermission)
		})
		r.Route("/transport", func(r chi.Router) {
			p.Transport.MountRoutes(r, RequirePermission)
		})
		r.Route("/finance", func(r chi.Router) {
			p.Finance.MountRoutes(r, RequirePermission)
		})
		r.Route("/watchman", func(r chi.Router) {
			p.Gate.MountWatchmanRoutes(r, RequirePermission)
		})
		r.Route("/gate-entry", func(r chi.Router) {
			p.Gate.MountEntryRoutes(r, RequirePermission)
		})
		r.Route("/showroom", func(r chi.Router) {
			p.Showroom.MountRoutes(r, RequirePermission)
		})
		r.Route("/production", func(r chi.Router) {
			p.Production.MountRoutes(r, RequirePermission)
		})
		r.Route("/purchase", func(r chi.Router) {
			p.Purchase.MountRoutes(r, RequirePermission)
		})
		r.Route("/inventory", func(r chi.Router) {
			p.Inventory.MountRoutes(r, RequirePermission)
		})
	})

	return r
}
