package wallet

import (
	"github.com/google/uuid"

	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
)

// CreditInput adds funds to a wallet. Used by top-ups.
type CreditInput struct {
	UserID         uuid.UUID
	AmountPaise    int64
	Note           string
	RelatedOrderID *uuid.UUID
}

// DebitInput removes spendable funds from a wallet. Used by withdrawals.
type DebitInput struct {
	UserID      uuid.UUID
	AmountPaise int64
	Note        string
}

// HoldInput reserves spendable funds against a future order settlement.
type HoldInput struct {
	UserID         uuid.UUID
	AmountPaise    int64
	Note           string
	RelatedOrderID *uuid.UUID
}

// ReleaseInput returns a hold's funds to the spendable balance.
type ReleaseInput struct {
	HoldTransactionID uuid.UUID
	Note              string
}

// TransferInput moves a hold's funds to the seller. The amount is always the
// full hold amount.
type TransferInput struct {
	HoldTransactionID uuid.UUID
	SellerID          uuid.UUID
	Note              string
}

// TransferResult reports both legs of a settlement transfer. Credit is nil and
// CompensationPending true when the seller credit failed and was handed to the
// reconciliation sweep.
type TransferResult struct {
	Debit               *models.WalletTransaction
	Credit              *models.WalletTransaction
	CompensationPending bool
	Replayed            bool
}

// TransactionPage is one page of a wallet's ledger, newest first.
type TransactionPage struct {
	Transactions []models.WalletTransaction
	NextCursor   string
}
