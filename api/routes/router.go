package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/craftkart/craftkart-backend/api/controllers"
	webhookcontrollers "github.com/craftkart/craftkart-backend/api/controllers/webhooks"
	"github.com/craftkart/craftkart-backend/api/middleware"
	"github.com/craftkart/craftkart-backend/internal/payments"
	"github.com/craftkart/craftkart-backend/internal/settings"
	cashfreewebhook "github.com/craftkart/craftkart-backend/internal/webhooks/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/db"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs. cmd/api builds the
// concrete services and hands them over here.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redis.Pinger
	Registry *prometheus.Registry

	Payments      payments.Service
	Settings      settings.Service
	Events        controllers.PaymentEventLister
	Webhooks      webhookcontrollers.CashfreeWebhookService
	WebhookGuard  *cashfreewebhook.IdempotencyGuard
	WebhookSecret string
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/orders", controllers.CreatePaymentOrder(params.Payments, logg))
		r.Get("/orders/{orderId}", controllers.PaymentOrderStatus(params.Payments, logg))

		// The gateway redirects the shopper's browser here with GET or POST
		// depending on checkout mode.
		r.Get("/return", controllers.PaymentReturn(params.Payments, logg))
		r.Post("/return", controllers.PaymentReturn(params.Payments, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/cashfree", webhookcontrollers.CashfreeWebhook(params.Webhooks, params.WebhookSecret, params.WebhookGuard, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Get("/settings/cashfree", controllers.GetGatewaySettings(params.Settings, logg))
		r.Put("/settings/cashfree", controllers.UpdateGatewaySettings(params.Settings, logg))
		r.Get("/payments/orders/{orderId}/events", controllers.ListPaymentEvents(params.Events, logg))
	})

	return r
}
