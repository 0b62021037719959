package wallet

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	dbpkg "github.com/agribazaar/agribazaar-backend/pkg/db"
	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/enums"
	pkgerrors "github.com/agribazaar/agribazaar-backend/pkg/errors"
	"github.com/agribazaar/agribazaar-backend/pkg/metrics"
	"github.com/agribazaar/agribazaar-backend/pkg/outbox"
	"github.com/agribazaar/agribazaar-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the escrow wallet operations. Every mutation appends a
// ledger entry and bumps the wallet version; concurrent writers are retried a
// bounded number of times before surfacing CONTENTION.
type Service interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error)
	Credit(ctx context.Context, input CreditInput) (*models.WalletTransaction, error)
	Debit(ctx context.Context, input DebitInput) (*models.WalletTransaction, error)
	Hold(ctx context.Context, input HoldInput) (*models.WalletTransaction, error)
	Release(ctx context.Context, input ReleaseInput) (*models.WalletTransaction, error)
	Transfer(ctx context.Context, input TransferInput) (*TransferResult, error)
	RetrySellerCredit(ctx context.Context, comp models.SettlementCompensation) (*models.WalletTransaction, error)
	PendingCompensations(ctx context.Context, limit int) ([]models.SettlementCompensation, error)
}

// Config bounds the optimistic-concurrency retry loop.
type Config struct {
	MutationMaxRetries int
	MutationBackoff    time.Duration
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	cfg     Config
	metrics *metrics.LedgerMetrics
}

var (
	errVersionConflict     = stdErrors.New("wallet version conflict")
	errCreditAlreadyLanded = stdErrors.New("transfer credit already recorded")
)

// NewService wires a wallet service with the required dependencies. The
// metrics collector may be nil.
func NewService(repo Repository, tx txRunner, ob outboxPublisher, cfg Config, ledgerMetrics *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.MutationMaxRetries <= 0 {
		cfg.MutationMaxRetries = 5
	}
	if cfg.MutationBackoff <= 0 {
		cfg.MutationBackoff = 20 * time.Millisecond
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  ob,
		cfg:     cfg,
		metrics: ledgerMetrics,
	}, nil
}

func (s *service) GetWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	wallet, err := s.repo.FindWallet(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			// Wallets materialize lazily; an untouched wallet reads as zero.
			return &models.Wallet{UserID: userID}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return wallet, nil
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, params pagination.Params) (*TransactionPage, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	txns, err := s.repo.ListTransactions(ctx, userID, limit+1, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}

	page := &TransactionPage{Transactions: txns}
	if len(txns) > limit {
		page.Transactions = txns[:limit]
		last := page.Transactions[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) Credit(ctx context.Context, input CreditInput) (*models.WalletTransaction, error) {
	if err := validateAmount(input.UserID, input.AmountPaise); err != nil {
		return nil, err
	}

	var created *models.WalletTransaction
	err := s.mutate(ctx, string(enums.TransactionKindCredit), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := s.loadOrInitWallet(ctx, repo, input.UserID)
		if err != nil {
			return err
		}
		ok, err := repo.UpdateWalletVersioned(ctx, wallet.UserID, wallet.Version,
			wallet.BalancePaise+input.AmountPaise, wallet.HeldPaise)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
		}
		if !ok {
			return errVersionConflict
		}

		txn := &models.WalletTransaction{
			ID:             uuid.New(),
			WalletUserID:   wallet.UserID,
			AmountPaise:    input.AmountPaise,
			Kind:           enums.TransactionKindCredit,
			Status:         enums.TransactionStatusCompleted,
			Note:           input.Note,
			RelatedOrderID: input.RelatedOrderID,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record credit")
		}
		created = txn
		return s.emitWalletEvent(ctx, tx, enums.EventWalletCredited, txn)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Debit(ctx context.Context, input DebitInput) (*models.WalletTransaction, error) {
	if err := validateAmount(input.UserID, input.AmountPaise); err != nil {
		return nil, err
	}

	var created *models.WalletTransaction
	err := s.mutate(ctx, string(enums.TransactionKindDebit), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := s.loadOrInitWallet(ctx, repo, input.UserID)
		if err != nil {
			return err
		}
		if wallet.Available() < input.AmountPaise {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance too low").
				WithDetails(map[string]any{
					"available_paise": wallet.Available(),
					"requested_paise": input.AmountPaise,
				})
		}
		ok, err := repo.UpdateWalletVersioned(ctx, wallet.UserID, wallet.Version,
			wallet.BalancePaise-input.AmountPaise, wallet.HeldPaise)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
		}
		if !ok {
			return errVersionConflict
		}

		txn := &models.WalletTransaction{
			ID:           uuid.New(),
			WalletUserID: wallet.UserID,
			AmountPaise:  input.AmountPaise,
			Kind:         enums.TransactionKindDebit,
			Status:       enums.TransactionStatusCompleted,
			Note:         input.Note,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record debit")
		}
		created = txn
		return s.emitWalletEvent(ctx, tx, enums.EventWalletDebited, txn)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Hold(ctx context.Context, input HoldInput) (*models.WalletTransaction, error) {
	if err := validateAmount(input.UserID, input.AmountPaise); err != nil {
		return nil, err
	}

	var created *models.WalletTransaction
	err := s.mutate(ctx, string(enums.TransactionKindHold), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := s.loadOrInitWallet(ctx, repo, input.UserID)
		if err != nil {
			return err
		}
		if wallet.Available() < input.AmountPaise {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance too low").
				WithDetails(map[string]any{
					"available_paise": wallet.Available(),
					"requested_paise": input.AmountPaise,
				})
		}
		ok, err := repo.UpdateWalletVersioned(ctx, wallet.UserID, wallet.Version,
			wallet.BalancePaise, wallet.HeldPaise+input.AmountPaise)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hold funds")
		}
		if !ok {
			return errVersionConflict
		}

		txn := &models.WalletTransaction{
			ID:             uuid.New(),
			WalletUserID:   wallet.UserID,
			AmountPaise:    input.AmountPaise,
			Kind:           enums.TransactionKindHold,
			Status:         enums.TransactionStatusHeld,
			Note:           input.Note,
			RelatedOrderID: input.RelatedOrderID,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record hold")
		}
		created = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Release(ctx context.Context, input ReleaseInput) (*models.WalletTransaction, error) {
	if input.HoldTransactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hold transaction id required")
	}

	var created *models.WalletTransaction
	err := s.mutate(ctx, string(enums.TransactionKindRelease), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		hold, err := s.loadHold(ctx, repo, input.HoldTransactionID)
		if err != nil {
			return err
		}

		if settled, err := s.findSettlement(ctx, repo, hold.ID); err != nil {
			return err
		} else if settled != nil {
			if settled.Kind == enums.TransactionKindRelease {
				// Replayed release: return the recorded outcome.
				created = settled
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeAlreadySettled, "hold already transferred")
		}

		wallet, err := repo.FindWallet(ctx, hold.WalletUserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
		}
		ok, err := repo.UpdateWalletVersioned(ctx, wallet.UserID, wallet.Version,
			wallet.BalancePaise, wallet.HeldPaise-hold.AmountPaise)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release hold")
		}
		if !ok {
			return errVersionConflict
		}

		holdID := hold.ID
		txn := &models.WalletTransaction{
			ID:                   uuid.New(),
			WalletUserID:         wallet.UserID,
			AmountPaise:          hold.AmountPaise,
			Kind:                 enums.TransactionKindRelease,
			Status:               enums.TransactionStatusCompleted,
			Note:                 input.Note,
			RelatedOrderID:       hold.RelatedOrderID,
			RelatedTransactionID: &holdID,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_wallet_txns_hold_settlement") {
				return pkgerrors.New(pkgerrors.CodeAlreadySettled, "hold settled concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record release")
		}
		created = txn
		return nil
	})
	if err != nil {
		// A concurrent settle may have raced us; if it was the same release,
		// the recorded outcome stands.
		if pkgerrors.IsCode(err, pkgerrors.CodeAlreadySettled) {
			if settled, lookupErr := s.findSettlement(ctx, s.repo, input.HoldTransactionID); lookupErr == nil &&
				settled != nil && settled.Kind == enums.TransactionKindRelease {
				return settled, nil
			}
		}
		return nil, err
	}
	return created, nil
}

func (s *service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.HoldTransactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hold transaction id required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	result := &TransferResult{}
	err := s.mutate(ctx, string(enums.TransactionKindTransferDebit), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		hold, err := s.loadHold(ctx, repo, input.HoldTransactionID)
		if err != nil {
			return err
		}
		if hold.WalletUserID == input.SellerID {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot transfer a hold to its own wallet")
		}

		if settled, err := s.findSettlement(ctx, repo, hold.ID); err != nil {
			return err
		} else if settled != nil {
			if settled.Kind == enums.TransactionKindTransferDebit {
				result.Debit = settled
				result.Replayed = true
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeAlreadySettled, "hold already released")
		}

		wallet, err := repo.FindWallet(ctx, hold.WalletUserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
		}
		ok, err := repo.UpdateWalletVersioned(ctx, wallet.UserID, wallet.Version,
			wallet.BalancePaise-hold.AmountPaise, wallet.HeldPaise-hold.AmountPaise)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit held funds")
		}
		if !ok {
			return errVersionConflict
		}

		holdID := hold.ID
		seller := input.SellerID
		debit := &models.WalletTransaction{
			ID:                   uuid.New(),
			WalletUserID:         wallet.UserID,
			AmountPaise:          hold.AmountPaise,
			Kind:                 enums.TransactionKindTransferDebit,
			Status:               enums.TransactionStatusCompleted,
			Note:                 input.Note,
			RelatedOrderID:       hold.RelatedOrderID,
			RelatedTransactionID: &holdID,
			CounterpartyUserID:   &seller,
		}
		if err := repo.CreateTransaction(ctx, debit); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_wallet_txns_hold_settlement") {
				return pkgerrors.New(pkgerrors.CodeAlreadySettled, "hold settled concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transfer debit")
		}
		result.Debit = debit
		return s.emitWalletEvent(ctx, tx, enums.EventWalletDebited, debit)
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeAlreadySettled) {
			if settled, lookupErr := s.findSettlement(ctx, s.repo, input.HoldTransactionID); lookupErr == nil &&
				settled != nil && settled.Kind == enums.TransactionKindTransferDebit {
				result.Debit = settled
				result.Replayed = true
				err = nil
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if result.Replayed {
		// The debit leg already ran once; the credit leg either landed or is
		// owned by the reconciliation sweep.
		credit, err := s.repo.FindCreditOf(ctx, result.Debit.ID)
		if err == nil {
			result.Credit = credit
			return result, nil
		}
		if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer credit")
		}
		result.CompensationPending = true
		return result, nil
	}

	// The buyer debit is committed; crediting the seller must not undo it.
	credit, err := s.creditSellerForTransfer(ctx, input.SellerID, result.Debit)
	if err != nil {
		if compErr := s.recordCompensation(ctx, result.Debit, input.SellerID, err); compErr != nil {
			return nil, compErr
		}
		result.CompensationPending = true
		return result, nil
	}
	result.Credit = credit
	return result, nil
}

// RetrySellerCredit re-attempts the seller credit leg of a transfer whose
// first attempt failed. Safe to call repeatedly; an already-landed credit only
// resolves the compensation.
func (s *service) RetrySellerCredit(ctx context.Context, comp models.SettlementCompensation) (*models.WalletTransaction, error) {
	if existing, err := s.repo.FindCreditOf(ctx, comp.DebitTransactionID); err == nil {
		if err := s.repo.MarkCompensationResolved(ctx, comp.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve compensation")
		}
		return existing, nil
	} else if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer credit")
	}

	debit, err := s.repo.FindTransaction(ctx, comp.DebitTransactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transfer debit")
	}

	s.metrics.IncSettlementRetry()
	credit, err := s.creditSellerForTransfer(ctx, comp.SellerID, debit)
	if err != nil {
		if recordErr := s.repo.RecordCompensationAttempt(ctx, comp.ID, err); recordErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, recordErr, "record compensation attempt")
		}
		return nil, err
	}
	if err := s.repo.MarkCompensationResolved(ctx, comp.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve compensation")
	}
	return credit, nil
}

// PendingCompensations lists seller credits still waiting to be retried,
// oldest first.
func (s *service) PendingCompensations(ctx context.Context, limit int) ([]models.SettlementCompensation, error) {
	rows, err := s.repo.ListUnresolvedCompensations(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending compensations")
	}
	return rows, nil
}

func (s *service) creditSellerForTransfer(ctx context.Context, sellerID uuid.UUID, debit *models.WalletTransaction) (*models.WalletTransaction, error) {
	var created *models.WalletTransaction
	err := s.mutate(ctx, string(enums.TransactionKindTransferCredit), func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		wallet, err := s.loadOrInitWallet(ctx, repo, sellerID)
		if err != nil {
			return err
		}
		ok, err := repo.UpdateWalletVersioned(ctx, wallet.UserID, wallet.Version,
			wallet.BalancePaise+debit.AmountPaise, wallet.HeldPaise)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit seller")
		}
		if !ok {
			return errVersionConflict
		}

		debitID := debit.ID
		buyer := debit.WalletUserID
		txn := &models.WalletTransaction{
			ID:                   uuid.New(),
			WalletUserID:         wallet.UserID,
			AmountPaise:          debit.AmountPaise,
			Kind:                 enums.TransactionKindTransferCredit,
			Status:               enums.TransactionStatusCompleted,
			Note:                 debit.Note,
			RelatedOrderID:       debit.RelatedOrderID,
			RelatedTransactionID: &debitID,
			CounterpartyUserID:   &buyer,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_wallet_txns_transfer_credit") {
				return errCreditAlreadyLanded
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transfer credit")
		}
		created = txn
		return s.emitWalletEvent(ctx, tx, enums.EventWalletCredited, txn)
	})
	if stdErrors.Is(err, errCreditAlreadyLanded) {
		// A concurrent attempt won; its credit is the one that counts.
		existing, findErr := s.repo.FindCreditOf(ctx, debit.ID)
		if findErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load transfer credit")
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) recordCompensation(ctx context.Context, debit *models.WalletTransaction, sellerID uuid.UUID, cause error) error {
	msg := cause.Error()
	comp := &models.SettlementCompensation{
		ID:                 uuid.New(),
		OrderID:            derefOrderID(debit.RelatedOrderID),
		HoldTransactionID:  derefTxnID(debit.RelatedTransactionID),
		DebitTransactionID: debit.ID,
		SellerID:           sellerID,
		AmountPaise:        debit.AmountPaise,
		AttemptCount:       1,
		LastError:          &msg,
	}
	if err := s.repo.CreateCompensation(ctx, comp); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_settlement_comp_debit") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record settlement compensation")
	}
	s.metrics.IncCompensation()
	return nil
}

func (s *service) loadHold(ctx context.Context, repo Repository, holdID uuid.UUID) (*models.WalletTransaction, error) {
	hold, err := repo.FindTransaction(ctx, holdID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeHoldNotFound, "hold transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hold")
	}
	if hold.Kind != enums.TransactionKindHold {
		return nil, pkgerrors.New(pkgerrors.CodeHoldNotFound, "transaction is not a hold")
	}
	return hold, nil
}

func (s *service) findSettlement(ctx context.Context, repo Repository, holdID uuid.UUID) (*models.WalletTransaction, error) {
	settled, err := repo.FindSettlementOf(ctx, holdID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check hold settlement")
	}
	return settled, nil
}

func (s *service) loadOrInitWallet(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := repo.FindWallet(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	fresh := &models.Wallet{UserID: userID}
	if createErr := repo.CreateWallet(ctx, fresh); createErr != nil {
		// A concurrent writer may have initialized it first.
		if dbpkg.IsUniqueViolation(createErr, "") {
			return repo.FindWallet(ctx, userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "init wallet")
	}
	return fresh, nil
}

// mutate runs fn inside a transaction, retrying with backoff when the
// optimistic version check loses a race. Exhausting the retries surfaces
// CONTENTION to the caller.
func (s *service) mutate(ctx context.Context, kind string, fn func(tx *gorm.DB) error) error {
	backoff := retry.WithMaxRetries(uint64(s.cfg.MutationMaxRetries), retry.NewExponential(s.cfg.MutationBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.tx.WithTx(ctx, fn)
		if stdErrors.Is(err, errVersionConflict) {
			s.metrics.IncVersionConflict(kind)
			return retry.RetryableError(err)
		}
		return err
	})
	if stdErrors.Is(err, errVersionConflict) {
		return pkgerrors.Wrap(pkgerrors.CodeContention, err, "wallet busy")
	}
	return err
}

func (s *service) emitWalletEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, txn *models.WalletTransaction) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateWallet,
		AggregateID:   txn.WalletUserID,
		Version:       1,
		Data: WalletEvent{
			TransactionID:  txn.ID,
			WalletUserID:   txn.WalletUserID,
			AmountPaise:    txn.AmountPaise,
			Kind:           txn.Kind,
			RelatedOrderID: txn.RelatedOrderID,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

// WalletEvent is the outbox payload for wallet credits and debits.
type WalletEvent struct {
	TransactionID  uuid.UUID             `json:"transaction_id"`
	WalletUserID   uuid.UUID             `json:"wallet_user_id"`
	AmountPaise    int64                 `json:"amount_paise"`
	Kind           enums.TransactionKind `json:"kind"`
	RelatedOrderID *uuid.UUID            `json:"related_order_id,omitempty"`
}

func validateAmount(userID uuid.UUID, amountPaise int64) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if amountPaise <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func derefOrderID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func derefTxnID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
