package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/logger"
)

const settlementBatchSize = 100

// settlementReconciler is the slice of the order service the reconcile job
// drives.
type settlementReconciler interface {
	ReconcileSettlements(ctx context.Context, limit int) (int, error)
}

// compensationRetrier is the slice of the wallet service that retries failed
// seller credits.
type compensationRetrier interface {
	PendingCompensations(ctx context.Context, limit int) ([]models.SettlementCompensation, error)
	RetrySellerCredit(ctx context.Context, comp models.SettlementCompensation) (*models.WalletTransaction, error)
}

// SettlementReconcileJobParams configure the settlement sweep.
type SettlementReconcileJobParams struct {
	Logger    *logger.Logger
	Orders    settlementReconciler
	Wallets   compensationRetrier
	BatchSize int
}

// NewSettlementReconcileJob builds the cron job that re-runs stuck
// settlements: terminal orders still flagged settlement_pending, and seller
// credits whose first attempt failed.
func NewSettlementReconcileJob(params SettlementReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = settlementBatchSize
	}
	return &settlementReconcileJob{
		logg:    params.Logger,
		orders:  params.Orders,
		wallets: params.Wallets,
		batch:   batch,
	}, nil
}

type settlementReconcileJob struct {
	logg    *logger.Logger
	orders  settlementReconciler
	wallets compensationRetrier
	batch   int
}

func (j *settlementReconcileJob) Name() string { return "settlement-reconcile" }

func (j *settlementReconcileJob) Run(ctx context.Context) error {
	var errs error

	settled, err := j.orders.ReconcileSettlements(ctx, j.batch)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("order settlements: %w", err))
	}

	retried, err := j.retryCompensations(ctx)
	if err != nil {
		errs = multierr.Append(errs, err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"orders_settled":        settled,
		"compensations_retried": retried,
	})
	if errs != nil {
		j.logg.Error(logCtx, "settlement reconcile finished with errors", errs)
		return errs
	}
	j.logg.Info(logCtx, "settlement reconcile complete")
	return nil
}

func (j *settlementReconcileJob) retryCompensations(ctx context.Context) (int, error) {
	comps, err := j.wallets.PendingCompensations(ctx, j.batch)
	if err != nil {
		return 0, fmt.Errorf("list compensations: %w", err)
	}

	var retried int
	var errs error
	for _, comp := range comps {
		if _, err := j.wallets.RetrySellerCredit(ctx, comp); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("compensation %s: %w", comp.ID, err))
			continue
		}
		retried++
	}
	return retried, errs
}
