package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/agribazaar/agribazaar-backend/pkg/logger"
)

const autoCancelBatchSize = 200

// orderSweeper is the slice of the order service the auto-cancel job drives.
type orderSweeper interface {
	AutoCancelDueOrders(ctx context.Context, now time.Time, limit int) (int, error)
}

// OrderAutoCancelJobParams configure the pending-order expiry sweep.
type OrderAutoCancelJobParams struct {
	Logger    *logger.Logger
	Orders    orderSweeper
	BatchSize int
}

// NewOrderAutoCancelJob builds the cron job that cancels pending orders whose
// confirmation deadline has passed. The quiet-window check lives in the order
// service, so running this job at night is harmless.
func NewOrderAutoCancelJob(params OrderAutoCancelJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = autoCancelBatchSize
	}
	return &orderAutoCancelJob{
		logg:   params.Logger,
		orders: params.Orders,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type orderAutoCancelJob struct {
	logg   *logger.Logger
	orders orderSweeper
	batch  int
	now    func() time.Time
}

func (j *orderAutoCancelJob) Name() string { return "order-autocancel" }

func (j *orderAutoCancelJob) Run(ctx context.Context) error {
	cancelled, err := j.orders.AutoCancelDueOrders(ctx, j.now(), j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{"cancelled": cancelled})
	if err != nil {
		j.logg.Error(logCtx, "order auto-cancel sweep finished with errors", err)
		return fmt.Errorf("auto-cancel sweep: %w", err)
	}
	j.logg.Info(logCtx, "order auto-cancel sweep complete")
	return nil
}
