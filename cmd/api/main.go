package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/agribazaar/agribazaar-backend/api/controllers"
	"github.com/agribazaar/agribazaar-backend/api/routes"
	"github.com/agribazaar/agribazaar-backend/internal/orders"
	"github.com/agribazaar/agribazaar-backend/internal/wallet"
	"github.com/agribazaar/agribazaar-backend/pkg/config"
	"github.com/agribazaar/agribazaar-backend/pkg/db"
	"github.com/agribazaar/agribazaar-backend/pkg/logger"
	"github.com/agribazaar/agribazaar-backend/pkg/metrics"
	"github.com/agribazaar/agribazaar-backend/pkg/migrate"
	"github.com/agribazaar/agribazaar-backend/pkg/outbox"
	"github.com/agribazaar/agribazaar-backend/pkg/redis"
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

	ledgerMetrics := metrics.NewLedgerMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	walletService, err := wallet.NewService(
		wallet.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		wallet.Config{
			MutationMaxRetries: cfg.Wallet.MutationMaxRetries,
			MutationBackoff:    cfg.Wallet.MutationBackoff,
		},
		ledgerMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		walletService,
		dbClient,
		outboxService,
		orderConfig(cfg, logg),
		ledgerMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config: cfg,
			Logger: logg,
			Redis:  redisClient,
			Wallet: walletService,
			Orders: orderService,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func orderConfig(cfg *config.Config, logg *logger.Logger) orders.Config {
	feePercent, err := decimal.NewFromString(cfg.Orders.DeliveryFeePercent)
	if err != nil {
		logg.Warn(context.Background(), fmt.Sprintf("invalid delivery fee percent %q, using 5", cfg.Orders.DeliveryFeePercent))
		feePercent = decimal.NewFromInt(5)
	}
	location, err := time.LoadLocation(cfg.Orders.Timezone)
	if err != nil {
		logg.Warn(context.Background(), fmt.Sprintf("invalid timezone %q, using local", cfg.Orders.Timezone))
		location = time.Local
	}
	return orders.Config{
		QuietWindowStartHour: cfg.Orders.QuietWindowStartHour,
		QuietWindowEndHour:   cfg.Orders.QuietWindowEndHour,
		DeliveryFeePercent:   feePercent,
		DeliveryFeeMinPaise:  cfg.Orders.DeliveryFeeMinPaise,
		Location:             location,
	}
}
