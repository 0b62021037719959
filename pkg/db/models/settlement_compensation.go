package models

import (
	"time"

	"github.com/google/uuid"
)

// SettlementCompensation records a transfer whose buyer-side debit committed
// but whose seller-side credit did not. The reconciliation sweep retries the
// credit until it lands; the buyer debit is never reversed because the hold it
// consumed was exclusive to the order.
type SettlementCompensation struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	HoldTransactionID  uuid.UUID  `gorm:"column:hold_transaction_id;type:uuid;not null"`
	DebitTransactionID uuid.UUID  `gorm:"column:debit_transaction_id;type:uuid;not null;uniqueIndex:ux_settlement_comp_debit"`
	SellerID           uuid.UUID  `gorm:"column:seller_id;type:uuid;not null"`
	AmountPaise        int64      `gorm:"column:amount_paise;not null"`
	AttemptCount       int        `gorm:"column:attempt_count;not null;default:0"`
	LastError          *string    `gorm:"column:last_error"`
	ResolvedAt         *time.Time `gorm:"column:resolved_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
}
