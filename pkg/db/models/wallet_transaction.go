package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agribazaar/agribazaar-backend/pkg/enums"
)

// WalletTransaction is one append-only entry in a wallet's ledger. A hold is
// written with status held and stays that way; its terminal resolution is a
// separate release or transfer_debit row pointing back through
// RelatedTransactionID. The partial unique index ux_wallet_txns_hold_settlement
// guarantees a hold is never settled twice.
type WalletTransaction struct {
	ID                   uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletUserID         uuid.UUID               `gorm:"column:wallet_user_id;type:uuid;not null;index"`
	AmountPaise          int64                   `gorm:"column:amount_paise;not null"`
	Kind                 enums.TransactionKind   `gorm:"column:kind;type:transaction_kind;not null"`
	Status               enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'completed'"`
	Note                 string                  `gorm:"column:note"`
	RelatedOrderID       *uuid.UUID              `gorm:"column:related_order_id;type:uuid"`
	RelatedTransactionID *uuid.UUID              `gorm:"column:related_transaction_id;type:uuid"`
	CounterpartyUserID   *uuid.UUID              `gorm:"column:counterparty_user_id;type:uuid"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
}
