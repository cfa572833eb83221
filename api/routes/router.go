package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/invoicetrack-backend/api/controllers"
	invoicecontrollers "github.com/angelmondragon/invoicetrack-backend/api/controllers/invoices"
	"github.com/angelmondragon/invoicetrack-backend/api/middleware"
	"github.com/angelmondragon/invoicetrack-backend/internal/invoices"
	"github.com/angelmondragon/invoicetrack-backend/pkg/config"
	"github.com/angelmondragon/invoicetrack-backend/pkg/logger"
)

// Dependencies is everything the router hands to controllers. Ready lists the
// dependencies /health/ready pings; Metrics is mounted at /metrics when set.
type Dependencies struct {
	Service invoices.Service
	Queries invoices.Queries
	Ready   map[string]controllers.Pinger
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if len(cfg.App.CORSOrigins) > 0 {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/invoices", func(r chi.Router) {
		r.Post("/", invoicecontrollers.Create(deps.Service, logg))
		r.Get("/", invoicecontrollers.List(deps.Queries, logg))
		r.Get("/count", invoicecontrollers.Count(deps.Queries, logg))
		r.Get("/summary", invoicecontrollers.Summary(deps.Queries, logg))
		r.Get("/by-txn-hash/{hash}", invoicecontrollers.ByTxnHash(deps.Queries, logg))
		r.Get("/by-vendor-email-hash/{hash}", invoicecontrollers.ByVendorEmailHash(deps.Queries, logg))
		r.Get("/by-vendor-mobile-hash/{hash}", invoicecontrollers.ByVendorMobileHash(deps.Queries, logg))

		r.Route("/{recordId}", func(r chi.Router) {
			r.Get("/", invoicecontrollers.Get(deps.Queries, logg))
			r.Get("/history", invoicecontrollers.History(deps.Queries, logg))
			r.Post("/acknowledge", invoicecontrollers.Acknowledge(deps.Service, logg))
			r.Post("/pay", invoicecontrollers.MarkPaid(deps.Service, logg))
			r.Post("/reject", invoicecontrollers.Reject(deps.Service, logg))
			r.Post("/void", invoicecontrollers.Void(deps.Service, logg))
			r.Post("/finance", invoicecontrollers.Finance(deps.Service, logg))
			r.Post("/confirm-payment", invoicecontrollers.ConfirmPayment(deps.Service, logg))
			r.Post("/delete", invoicecontrollers.DeleteCopy(deps.Service, logg))
			r.Put("/tracking", invoicecontrollers.UpdateTracking(deps.Service, logg))
		})
	})

	return r
}
