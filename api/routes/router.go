package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kamaucodes/dukapay-backend/api/controllers"
	webhookcontrollers "github.com/kamaucodes/dukapay-backend/api/controllers/webhooks"
	"github.com/kamaucodes/dukapay-backend/api/middleware"
	"github.com/kamaucodes/dukapay-backend/internal/gateways"
	"github.com/kamaucodes/dukapay-backend/internal/ledger"
	"github.com/kamaucodes/dukapay-backend/internal/webhooks/processor"
	"github.com/kamaucodes/dukapay-backend/pkg/config"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
	"github.com/kamaucodes/dukapay-backend/pkg/metrics"
)

type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	Registry        *prometheus.Registry
	WebhookMetrics  *metrics.WebhookMetrics
	Dependencies    map[string]controllers.Pinger
	LedgerService   *ledger.Service
	Processor       *processor.Service
	Guard           *processor.IdempotencyGuard
	Flags           processor.FlagRepository
	StripeAdapter   gateways.Adapter
	PaystackAdapter gateways.Adapter
	MpesaAdapter    gateways.Adapter
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Dependencies))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeAdapter, p.Processor, p.Guard, p.WebhookMetrics, logg))
		r.Post("/stripe/{storeID}", webhookcontrollers.StripeWebhook(p.StripeAdapter, p.Processor, p.Guard, p.WebhookMetrics, logg))
		r.Post("/paystack", webhookcontrollers.PaystackWebhook(p.PaystackAdapter, p.Processor, p.Guard, p.WebhookMetrics, logg))
		r.Post("/paystack/{storeID}", webhookcontrollers.PaystackWebhook(p.PaystackAdapter, p.Processor, p.Guard, p.WebhookMetrics, logg))
		r.Post("/mpesa", webhookcontrollers.MpesaWebhook(p.MpesaAdapter, p.Processor, p.Guard, p.WebhookMetrics, logg))
		r.Post("/mpesa/{storeID}", webhookcontrollers.MpesaWebhook(p.MpesaAdapter, p.Processor, p.Guard, p.WebhookMetrics, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Route("/orders/{orderID}/payments", func(r chi.Router) {
			r.Post("/", controllers.RecordManualPayment(p.LedgerService, logg))
			r.Get("/", controllers.ListOrderPayments(p.LedgerService, logg))
		})
		r.Route("/reconciliation-flags", func(r chi.Router) {
			r.Get("/", controllers.ListReconciliationFlags(p.Flags, logg))
			r.Post("/{flagID}/resolve", controllers.ResolveReconciliationFlag(p.Flags, logg))
		})
	})

	return r
}
