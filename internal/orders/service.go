package orders

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/agribazaar/agribazaar-backend/internal/wallet"
	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/enums"
	pkgerrors "github.com/agribazaar/agribazaar-backend/pkg/errors"
	"github.com/agribazaar/agribazaar-backend/pkg/logger"
	"github.com/agribazaar/agribazaar-backend/pkg/metrics"
	"github.com/agribazaar/agribazaar-backend/pkg/outbox"
	"github.com/agribazaar/agribazaar-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// walletService is the slice of the wallet API the order workflow drives.
type walletService interface {
	Hold(ctx context.Context, input wallet.HoldInput) (*models.WalletTransaction, error)
	Release(ctx context.Context, input wallet.ReleaseInput) (*models.WalletTransaction, error)
	Transfer(ctx context.Context, input wallet.TransferInput) (*wallet.TransferResult, error)
}

// Service drives the order lifecycle. Status moves only through conditional
// updates, so two racing actors cannot both win a transition; wallet money
// moves before or after the status write, never inside the same lock.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderView, error)
	Get(ctx context.Context, orderID, actorUserID uuid.UUID) (*OrderView, error)
	List(ctx context.Context, input ListInput) (*OrderPage, error)
	Confirm(ctx context.Context, input TransitionInput) (*models.Order, error)
	StartProcessing(ctx context.Context, input TransitionInput) (*models.Order, error)
	MarkOutForDelivery(ctx context.Context, input TransitionInput) (*models.Order, error)
	MarkDelivered(ctx context.Context, input TransitionInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	AutoCancelDueOrders(ctx context.Context, now time.Time, limit int) (int, error)
	ReconcileSettlements(ctx context.Context, limit int) (int, error)
}

// Config carries the workflow tunables.
type Config struct {
	QuietWindowStartHour int
	QuietWindowEndHour   int
	DeliveryFeePercent   decimal.Decimal
	DeliveryFeeMinPaise  int64
	Location             *time.Location
}

type service struct {
	repo    Repository
	wallets walletService
	tx      txRunner
	outbox  outboxPublisher
	cfg     Config
	metrics *metrics.LedgerMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the order workflow service. The metrics collector and
// logger may be nil.
func NewService(repo Repository, wallets walletService, tx txRunner, ob outboxPublisher, cfg Config, ledgerMetrics *metrics.LedgerMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &service{
		repo:    repo,
		wallets: wallets,
		tx:      tx,
		outbox:  ob,
		cfg:     cfg,
		metrics: ledgerMetrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// OrderEvent is the outbox payload for order lifecycle events.
type OrderEvent struct {
	OrderID           uuid.UUID         `json:"order_id"`
	BuyerID           uuid.UUID         `json:"buyer_id"`
	SellerID          uuid.UUID         `json:"seller_id"`
	Status            enums.OrderStatus `json:"status"`
	TotalPaise        int64             `json:"total_paise"`
	HoldTransactionID uuid.UUID         `json:"hold_transaction_id"`
	Reason            string            `json:"reason,omitempty"`
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderView, error) {
	if input.BuyerID == uuid.Nil || input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer and seller ids required")
	}
	if input.BuyerID == input.SellerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer cannot order from themselves")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	if input.DeliveryKind == "" {
		input.DeliveryKind = enums.DeliveryKindDelivery
	}
	if !input.DeliveryKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery kind")
	}

	var subtotal int64
	items := make([]models.OrderLineItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item qty must be positive")
		}
		if item.UnitPricePaise < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		total := item.UnitPricePaise * int64(item.Qty)
		subtotal += total
		items = append(items, models.OrderLineItem{
			ID:             uuid.New(),
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPricePaise: item.UnitPricePaise,
			Qty:            item.Qty,
			TotalPaise:     total,
		})
	}

	fee := DeliveryFeePaise(subtotal, input.DeliveryKind, s.cfg.DeliveryFeePercent, s.cfg.DeliveryFeeMinPaise)
	total := subtotal + fee
	orderID := uuid.New()

	// The hold lands first so the order never exists without escrowed funds.
	hold, err := s.wallets.Hold(ctx, wallet.HoldInput{
		UserID:         input.BuyerID,
		AmountPaise:    total,
		RelatedOrderID: &orderID,
		Note:           "escrow for order",
	})
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:                orderID,
		BuyerID:           input.BuyerID,
		SellerID:          input.SellerID,
		SubtotalPaise:     subtotal,
		DeliveryFeePaise:  fee,
		TotalPaise:        total,
		Status:            enums.OrderStatusPending,
		HoldTransactionID: hold.ID,
		DeliveryKind:      input.DeliveryKind,
		IsPrelisted:       input.IsPrelisted,
		Items:             items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return s.emitOrderEvent(ctx, tx, enums.EventOrderCreated, order, "")
	})
	if err != nil {
		// The hold is orphaned if the order row never landed; give the money
		// back rather than leaving it reserved.
		if _, releaseErr := s.wallets.Release(ctx, wallet.ReleaseInput{
			HoldTransactionID: hold.ID,
			Note:              "order creation failed",
		}); releaseErr != nil && s.logg != nil {
			s.logg.Error(ctx, "releasing hold after failed order create", releaseErr)
		}
		return nil, err
	}

	return s.view(order), nil
}

func (s *service) Get(ctx context.Context, orderID, actorUserID uuid.UUID) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actorUserID != order.BuyerID && actorUserID != order.SellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}

	order, err = s.expireIfDue(ctx, order)
	if err != nil {
		return nil, err
	}
	return s.view(order), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*OrderPage, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	filters := ListFilters{Status: input.Status}
	switch input.Side {
	case "", "buyer":
		filters.BuyerID = input.ActorUserID
	case "seller":
		filters.SellerID = input.ActorUserID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "side must be buyer or seller")
	}

	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	rows, err := s.repo.List(ctx, filters, limit+1, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := &OrderPage{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	// Expired pending orders are cancelled as they are observed.
	now := s.now()
	for i := range page.Orders {
		order := &page.Orders[i]
		if order.Status != enums.OrderStatusPending || !s.autoCancelDue(order, now) {
			continue
		}
		refreshed, err := s.expireIfDue(ctx, order)
		if err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "expiring order during list", err)
			}
			continue
		}
		page.Orders[i] = *refreshed
	}
	return page, nil
}

func (s *service) Confirm(ctx context.Context, input TransitionInput) (*models.Order, error) {
	order, err := s.loadForActor(ctx, input.OrderID, input.ActorUserID, actorSeller)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusConfirmed {
		return order, nil
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be confirmed")
	}
	// The deadline binds even while the quiet window is suppressing the
	// auto-cancel itself.
	if !s.now().Before(ConfirmationDeadline(order, s.cfg.Location)) {
		if _, err := s.expireIfDue(ctx, order); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation deadline passed")
	}

	extra := map[string]any{"confirmed_at": s.now()}
	if order.IsPrelisted && input.HarvestDate != nil {
		extra["harvest_date"] = *input.HarvestDate
	}
	return s.transition(ctx, order, enums.OrderStatusPending, enums.OrderStatusConfirmed,
		enums.EventOrderConfirmed, extra, "")
}

func (s *service) StartProcessing(ctx context.Context, input TransitionInput) (*models.Order, error) {
	order, err := s.loadForActor(ctx, input.OrderID, input.ActorUserID, actorSeller)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusProcessing {
		return order, nil
	}
	if order.Status != enums.OrderStatusConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only confirmed orders can start processing")
	}
	return s.transition(ctx, order, enums.OrderStatusConfirmed, enums.OrderStatusProcessing,
		enums.EventOrderProcessing, nil, "")
}

func (s *service) MarkOutForDelivery(ctx context.Context, input TransitionInput) (*models.Order, error) {
	order, err := s.loadForActor(ctx, input.OrderID, input.ActorUserID, actorSeller)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusOutForDelivery {
		return order, nil
	}
	if order.Status != enums.OrderStatusProcessing {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only processing orders can be dispatched")
	}
	if order.DeliveryKind == enums.DeliveryKindSelfPickup {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "self-pickup orders are not dispatched")
	}
	return s.transition(ctx, order, enums.OrderStatusProcessing, enums.OrderStatusOutForDelivery,
		enums.EventOrderDispatched, nil, "")
}

func (s *service) MarkDelivered(ctx context.Context, input TransitionInput) (*models.Order, error) {
	order, err := s.loadForActor(ctx, input.OrderID, input.ActorUserID, actorEither)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusDelivered {
		return order, nil
	}

	from := enums.OrderStatusOutForDelivery
	if order.DeliveryKind == enums.DeliveryKindSelfPickup {
		from = enums.OrderStatusProcessing
	}
	if order.Status != from {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not ready to be delivered")
	}

	order, err = s.transition(ctx, order, from, enums.OrderStatusDelivered,
		enums.EventOrderDelivered, map[string]any{
			"delivered_at":       s.now(),
			"settlement_pending": true,
		}, "")
	if err != nil {
		return nil, err
	}

	if err := s.settleDelivered(ctx, order); err != nil {
		// The order is delivered; settlement stays flagged for the sweep.
		if s.logg != nil {
			s.logg.Error(ctx, "settling delivered order", err)
		}
	}
	return s.load(ctx, order.ID)
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	order, err := s.loadForActor(ctx, input.OrderID, input.ActorUserID, actorEither)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusCancelled {
		return order, nil
	}

	switch {
	case input.ActorUserID == order.BuyerID:
		if order.Status != enums.OrderStatusPending {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "buyers can only cancel pending orders")
		}
	case input.ActorUserID == order.SellerID:
		switch order.Status {
		case enums.OrderStatusPending, enums.OrderStatusConfirmed,
			enums.OrderStatusProcessing, enums.OrderStatusOutForDelivery:
		default:
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}
	}

	reason := input.Reason
	if reason == "" {
		reason = "cancelled by user"
	}
	order, err = s.transition(ctx, order, order.Status, enums.OrderStatusCancelled,
		enums.EventOrderCancelled, map[string]any{
			"cancelled_at":       s.now(),
			"cancel_reason":      reason,
			"settlement_pending": true,
		}, reason)
	if err != nil {
		return nil, err
	}

	if err := s.settleCancelled(ctx, order); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "releasing hold for cancelled order", err)
		}
	}
	return s.load(ctx, order.ID)
}

// AutoCancelDueOrders sweeps pending orders whose confirmation deadline has
// passed and cancels them, releasing each escrow hold. It returns how many
// orders were cancelled.
func (s *service) AutoCancelDueOrders(ctx context.Context, now time.Time, limit int) (int, error) {
	rows, err := s.repo.ListPendingCreatedBefore(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}

	var cancelled int
	var errs error
	for i := range rows {
		order := &rows[i]
		if !s.autoCancelDue(order, now) {
			continue
		}
		if err := s.performAutoCancel(ctx, order); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		cancelled++
	}
	return cancelled, errs
}

// ReconcileSettlements retries wallet settlement for terminal orders still
// flagged settlement_pending. It returns how many orders were settled.
func (s *service) ReconcileSettlements(ctx context.Context, limit int) (int, error) {
	rows, err := s.repo.ListSettlementPending(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settlement-pending orders")
	}

	var settled int
	var errs error
	for i := range rows {
		order := &rows[i]
		var settleErr error
		switch order.Status {
		case enums.OrderStatusDelivered:
			settleErr = s.settleDelivered(ctx, order)
		case enums.OrderStatusCancelled:
			settleErr = s.settleCancelled(ctx, order)
		}
		if settleErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, settleErr))
			continue
		}
		settled++
	}
	return settled, errs
}

const (
	actorBuyer  = "buyer"
	actorSeller = "seller"
	actorEither = "either"
)

func (s *service) loadForActor(ctx context.Context, orderID, actorUserID uuid.UUID, role string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch role {
	case actorBuyer:
		if actorUserID != order.BuyerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer may do this")
		}
	case actorSeller:
		if actorUserID != order.SellerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the seller may do this")
		}
	default:
		if actorUserID != order.BuyerID && actorUserID != order.SellerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
	}
	return order, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// transition performs the conditional status update and emits the lifecycle
// event in one transaction.
func (s *service) transition(ctx context.Context, order *models.Order, from, to enums.OrderStatus, eventType enums.OutboxEventType, extra map[string]any, reason string) (*models.Order, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.CompareAndSetStatus(ctx, order.ID, from, to, extra)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently")
		}
		order.Status = to
		return s.emitOrderEvent(ctx, tx, eventType, order, reason)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, order.ID)
}

func (s *service) expireIfDue(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.Status != enums.OrderStatusPending || !s.autoCancelDue(order, s.now()) {
		return order, nil
	}
	if err := s.performAutoCancel(ctx, order); err != nil {
		return nil, err
	}
	return s.load(ctx, order.ID)
}

func (s *service) performAutoCancel(ctx context.Context, order *models.Order) error {
	reason := "confirmation deadline passed"
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.CompareAndSetStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, map[string]any{
			"cancelled_at":       s.now(),
			"cancel_reason":      reason,
			"settlement_pending": true,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "auto-cancel order")
		}
		if !ok {
			// Someone else moved the order first; nothing to do.
			return nil
		}
		order.Status = enums.OrderStatusCancelled
		s.metrics.IncAutoCancel()
		return s.emitOrderEvent(ctx, tx, enums.EventOrderAutoCancel, order, reason)
	})
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusCancelled {
		return nil
	}
	return s.settleCancelled(ctx, order)
}

// settleDelivered moves the escrowed funds to the seller. The transfer is
// idempotent, so re-running after a partial failure is safe.
func (s *service) settleDelivered(ctx context.Context, order *models.Order) error {
	result, err := s.wallets.Transfer(ctx, wallet.TransferInput{
		HoldTransactionID: order.HoldTransactionID,
		SellerID:          order.SellerID,
		Note:              "order settlement",
	})
	if err != nil {
		return err
	}
	if result.CompensationPending && s.logg != nil {
		s.logg.Warn(ctx, "seller credit deferred to reconciliation")
	}
	return s.finalizeSettlement(ctx, order)
}

// settleCancelled returns the escrowed funds to the buyer.
func (s *service) settleCancelled(ctx context.Context, order *models.Order) error {
	if _, err := s.wallets.Release(ctx, wallet.ReleaseInput{
		HoldTransactionID: order.HoldTransactionID,
		Note:              "order cancelled",
	}); err != nil {
		return err
	}
	return s.finalizeSettlement(ctx, order)
}

func (s *service) finalizeSettlement(ctx context.Context, order *models.Order) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateFields(ctx, order.ID, map[string]any{
			"payment_processed":  true,
			"settlement_pending": false,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize settlement")
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSettled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: OrderEvent{
				OrderID:           order.ID,
				BuyerID:           order.BuyerID,
				SellerID:          order.SellerID,
				Status:            order.Status,
				TotalPaise:        order.TotalPaise,
				HoldTransactionID: order.HoldTransactionID,
			},
		})
	})
}

func (s *service) emitOrderEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, reason string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: OrderEvent{
			OrderID:           order.ID,
			BuyerID:           order.BuyerID,
			SellerID:          order.SellerID,
			Status:            order.Status,
			TotalPaise:        order.TotalPaise,
			HoldTransactionID: order.HoldTransactionID,
			Reason:            reason,
		},
	})
}

func (s *service) view(order *models.Order) *OrderView {
	view := &OrderView{Order: order}
	if order.Status == enums.OrderStatusPending {
		deadline := ConfirmationDeadline(order, s.cfg.Location)
		view.ConfirmationDeadline = &deadline
	}
	return view
}
