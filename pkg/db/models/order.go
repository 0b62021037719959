package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agribazaar/agribazaar-backend/pkg/enums"
)

// Order is the buyer/seller order record. It is created together with a hold
// on the buyer's wallet for TotalPaise; HoldTransactionID links the two.
// PaymentProcessed flips true exactly once, when the hold has been settled
// (transferred to the seller or released back to the buyer).
// SettlementPending marks a terminal status whose wallet settlement has not
// been confirmed yet; the reconciliation sweep retries those.
type Order struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID           uuid.UUID          `gorm:"column:buyer_id;type:uuid;not null;index:idx_orders_buyer_status"`
	SellerID          uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;index:idx_orders_seller_status"`
	SubtotalPaise     int64              `gorm:"column:subtotal_paise;not null"`
	DeliveryFeePaise  int64              `gorm:"column:delivery_fee_paise;not null;default:0"`
	TotalPaise        int64              `gorm:"column:total_paise;not null"`
	Status            enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'pending';index:idx_orders_buyer_status;index:idx_orders_seller_status"`
	HoldTransactionID uuid.UUID          `gorm:"column:hold_transaction_id;type:uuid;not null"`
	PaymentProcessed  bool               `gorm:"column:payment_processed;not null;default:false"`
	SettlementPending bool               `gorm:"column:settlement_pending;not null;default:false"`
	DeliveryKind      enums.DeliveryKind `gorm:"column:delivery_kind;type:delivery_kind;not null;default:'delivery'"`
	IsPrelisted       bool               `gorm:"column:is_prelisted;not null;default:false"`
	HarvestDate       *time.Time         `gorm:"column:harvest_date"`
	CancelReason      *string            `gorm:"column:cancel_reason"`
	ConfirmedAt       *time.Time         `gorm:"column:confirmed_at"`
	DeliveredAt       *time.Time         `gorm:"column:delivered_at"`
	CancelledAt       *time.Time         `gorm:"column:cancelled_at"`
	Items             []OrderLineItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Closed reports whether the order reached a terminal status with its wallet
// settlement confirmed.
func (o Order) Closed() bool {
	return o.Status.IsTerminal() && o.PaymentProcessed
}
