package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/enums"
	"github.com/agribazaar/agribazaar-backend/pkg/pagination"
)

// Repository manages persistence for wallets, their ledger entries and
// settlement compensations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	// UpdateWalletVersioned applies the balance/held updates only when the
	// stored version still matches expectedVersion. It reports whether the
	// row was written.
	UpdateWalletVersioned(ctx context.Context, userID uuid.UUID, expectedVersion int64, balancePaise, heldPaise int64) (bool, error)

	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	FindTransaction(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error)
	// FindSettlementOf returns the release or transfer_debit row that settled
	// the given hold, or gorm.ErrRecordNotFound when the hold is still open.
	FindSettlementOf(ctx context.Context, holdID uuid.UUID) (*models.WalletTransaction, error)
	// FindCreditOf returns the transfer_credit row produced by the given
	// transfer_debit, or gorm.ErrRecordNotFound.
	FindCreditOf(ctx context.Context, debitID uuid.UUID) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error)

	CreateCompensation(ctx context.Context, comp *models.SettlementCompensation) error
	ListUnresolvedCompensations(ctx context.Context, limit int) ([]models.SettlementCompensation, error)
	MarkCompensationResolved(ctx context.Context, id uuid.UUID) error
	RecordCompensationAttempt(ctx context.Context, id uuid.UUID, attemptErr error) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) UpdateWalletVersioned(ctx context.Context, userID uuid.UUID, expectedVersion int64, balancePaise, heldPaise int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND version = ?", userID, expectedVersion).
		Updates(map[string]any{
			"balance_paise": balancePaise,
			"held_paise":    heldPaise,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransaction(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindSettlementOf(ctx context.Context, holdID uuid.UUID) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("related_transaction_id = ? AND kind IN ?", holdID, []enums.TransactionKind{
			enums.TransactionKindRelease,
			enums.TransactionKindTransferDebit,
		}).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindCreditOf(ctx context.Context, debitID uuid.UUID) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("related_transaction_id = ? AND kind = ?", debitID, enums.TransactionKindTransferCredit).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("wallet_user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var txns []models.WalletTransaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) CreateCompensation(ctx context.Context, comp *models.SettlementCompensation) error {
	return r.db.WithContext(ctx).Create(comp).Error
}

func (r *repository) ListUnresolvedCompensations(ctx context.Context, limit int) ([]models.SettlementCompensation, error) {
	var comps []models.SettlementCompensation
	if err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&comps).Error; err != nil {
		return nil, err
	}
	return comps, nil
}

func (r *repository) MarkCompensationResolved(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.SettlementCompensation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"resolved_at": time.Now(),
		}).Error
}

func (r *repository) RecordCompensationAttempt(ctx context.Context, id uuid.UUID, attemptErr error) error {
	updates := map[string]any{
		"attempt_count": gorm.Expr("attempt_count + 1"),
	}
	if attemptErr != nil {
		msg := attemptErr.Error()
		updates["last_error"] = msg
	}
	return r.db.WithContext(ctx).Model(&models.SettlementCompensation{}).
		Where("id = ?", id).
		Updates(updates).Error
}
