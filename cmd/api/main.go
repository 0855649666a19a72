package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kamaucodes/dukapay-backend/api/controllers"
	"github.com/kamaucodes/dukapay-backend/api/routes"
	"github.com/kamaucodes/dukapay-backend/internal/credentials"
	mpesagateway "github.com/kamaucodes/dukapay-backend/internal/gateways/mpesa"
	paystackgateway "github.com/kamaucodes/dukapay-backend/internal/gateways/paystack"
	stripegateway "github.com/kamaucodes/dukapay-backend/internal/gateways/stripe"
	"github.com/kamaucodes/dukapay-backend/internal/ledger"
	"github.com/kamaucodes/dukapay-backend/internal/orders"
	"github.com/kamaucodes/dukapay-backend/internal/webhooks/processor"
	"github.com/kamaucodes/dukapay-backend/pkg/config"
	"github.com/kamaucodes/dukapay-backend/pkg/db"
	"github.com/kamaucodes/dukapay-backend/pkg/enums"
	"github.com/kamaucodes/dukapay-backend/pkg/logger"
	"github.com/kamaucodes/dukapay-backend/pkg/metrics"
	"github.com/kamaucodes/dukapay-backend/pkg/migrate"
	"github.com/kamaucodes/dukapay-backend/pkg/outbox"
	"github.com/kamaucodes/dukapay-backend/pkg/redis"
	"github.com/kamaucodes/dukapay-backend/pkg/secrets"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cipher, err := secrets.NewCipher(cfg.Encryption.KeyHex)
	if err != nil {
		logg.Error(context.Background(), "failed to build credential cipher", err)
		os.Exit(1)
	}

	resolver, err := credentials.NewResolver(credentials.NewRepository(dbClient.DB()), cipher)
	if err != nil {
		logg.Error(context.Background(), "failed to build credential resolver", err)
		os.Exit(1)
	}

	stripeAdapter, err := stripegateway.NewAdapter(resolver, enums.Currency(cfg.Payments.StripeCurrency), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build stripe adapter", err)
		os.Exit(1)
	}
	paystackAdapter, err := paystackgateway.NewAdapter(resolver, enums.Currency(cfg.Payments.PaystackCurrency), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build paystack adapter", err)
		os.Exit(1)
	}
	mpesaAdapter, err := mpesagateway.NewAdapter(enums.Currency(cfg.Payments.MpesaCurrency), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build mpesa adapter", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ledgerService := ledger.NewService(ordersRepo, ledgerRepo, dbClient, outboxService, logg, cfg.Payments.LedgerConflictRetries)

	flagRepo := processor.NewFlagRepository(dbClient.DB())
	matcher := processor.NewMatcher(ordersRepo)
	processorService := processor.NewService(matcher, ledgerService, flagRepo, dbClient, outboxService, logg)
	guard := processor.NewIdempotencyGuard(redisClient, cfg.Payments.IdempotencyTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	handler := routes.NewRouter(routes.RouterParams{
		Config:         cfg,
		Logger:         logg,
		Registry:       registry,
		WebhookMetrics: webhookMetrics,
		Dependencies: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		LedgerService:   ledgerService,
		Processor:       processorService,
		Guard:           guard,
		Flags:           flagRepo,
		StripeAdapter:   stripeAdapter,
		PaystackAdapter: paystackAdapter,
		MpesaAdapter:    mpesaAdapter,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}
}
