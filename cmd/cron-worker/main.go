package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/agribazaar/agribazaar-backend/internal/cron"
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

const lockKeyFormat = "ab:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

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

	autoCancelJob, err := cron.NewOrderAutoCancelJob(cron.OrderAutoCancelJobParams{
		Logger: logg,
		Orders: orderService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auto-cancel job", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewSettlementReconcileJob(cron.SettlementReconcileJobParams{
		Logger:  logg,
		Orders:  orderService,
		Wallets: walletService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		Repository: outboxRepo,
		Retention:  cfg.Outbox.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(autoCancelJob, reconcileJob, retentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
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

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
