package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test"})
}

type fakeSweeper struct {
	cancelled int
	err       error
	gotLimit  int
}

func (f *fakeSweeper) AutoCancelDueOrders(ctx context.Context, now time.Time, limit int) (int, error) {
	f.gotLimit = limit
	return f.cancelled, f.err
}

func TestOrderAutoCancelJobRunsSweep(t *testing.T) {
	sweeper := &fakeSweeper{cancelled: 3}
	job, err := NewOrderAutoCancelJob(OrderAutoCancelJobParams{
		Logger: testLogger(),
		Orders: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "order-autocancel" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if sweeper.gotLimit != autoCancelBatchSize {
		t.Fatalf("expected default batch %d, got %d", autoCancelBatchSize, sweeper.gotLimit)
	}
}

func TestOrderAutoCancelJobSurfacesSweepError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	job, err := NewOrderAutoCancelJob(OrderAutoCancelJobParams{
		Logger: testLogger(),
		Orders: sweeper,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error from failed sweep")
	}
}

type fakeReconciler struct {
	settled int
	err     error
}

func (f *fakeReconciler) ReconcileSettlements(ctx context.Context, limit int) (int, error) {
	return f.settled, f.err
}

type fakeRetrier struct {
	comps    []models.SettlementCompensation
	failWith map[uuid.UUID]error
	retried  []uuid.UUID
}

func (f *fakeRetrier) PendingCompensations(ctx context.Context, limit int) ([]models.SettlementCompensation, error) {
	return f.comps, nil
}

func (f *fakeRetrier) RetrySellerCredit(ctx context.Context, comp models.SettlementCompensation) (*models.WalletTransaction, error) {
	if err := f.failWith[comp.ID]; err != nil {
		return nil, err
	}
	f.retried = append(f.retried, comp.ID)
	return &models.WalletTransaction{ID: uuid.New()}, nil
}

func TestSettlementReconcileJobRetriesAllCompensations(t *testing.T) {
	retrier := &fakeRetrier{
		comps: []models.SettlementCompensation{
			{ID: uuid.New()},
			{ID: uuid.New()},
		},
	}
	job, err := NewSettlementReconcileJob(SettlementReconcileJobParams{
		Logger:  testLogger(),
		Orders:  &fakeReconciler{settled: 1},
		Wallets: retrier,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(retrier.retried) != 2 {
		t.Fatalf("expected 2 retries, got %d", len(retrier.retried))
	}
}

func TestSettlementReconcileJobContinuesPastFailures(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	retrier := &fakeRetrier{
		comps: []models.SettlementCompensation{
			{ID: broken},
			{ID: healthy},
		},
		failWith: map[uuid.UUID]error{broken: errors.New("still failing")},
	}
	job, err := NewSettlementReconcileJob(SettlementReconcileJobParams{
		Logger:  testLogger(),
		Orders:  &fakeReconciler{},
		Wallets: retrier,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(retrier.retried) != 1 || retrier.retried[0] != healthy {
		t.Fatalf("expected healthy compensation retried, got %v", retrier.retried)
	}
}

type fakeRetentionRepo struct {
	deleted   int64
	gotCutoff time.Time
}

func (f *fakeRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.gotCutoff = cutoff
	return f.deleted, nil
}

func TestOutboxRetentionJobUsesRetentionWindow(t *testing.T) {
	repo := &fakeRetentionRepo{deleted: 7}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		Repository: repo,
		Retention:  10,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	expected := now.Add(-10 * 24 * time.Hour)
	if !repo.gotCutoff.Equal(expected) {
		t.Fatalf("expected cutoff %s, got %s", expected, repo.gotCutoff)
	}
}
