package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/enums"
	pkgerrors "github.com/agribazaar/agribazaar-backend/pkg/errors"
	"github.com/agribazaar/agribazaar-backend/pkg/outbox"
	"github.com/agribazaar/agribazaar-backend/pkg/pagination"
)

type fakeWalletRepo struct {
	wallets map[uuid.UUID]*models.Wallet
	txns    map[uuid.UUID]*models.WalletTransaction
	comps   map[uuid.UUID]*models.SettlementCompensation

	// failCreateTxn fails CreateTransaction for the given kind the configured
	// number of times before letting it through.
	failCreateTxn map[enums.TransactionKind]int
	// failUpdateFor makes UpdateWalletVersioned error for the given user the
	// configured number of times.
	failUpdateFor map[uuid.UUID]int
	// forcedConflicts makes UpdateWalletVersioned report a lost version race
	// the configured number of times.
	forcedConflicts int
	clock           time.Time
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{
		wallets:       make(map[uuid.UUID]*models.Wallet),
		txns:          make(map[uuid.UUID]*models.WalletTransaction),
		comps:         make(map[uuid.UUID]*models.SettlementCompensation),
		failCreateTxn: make(map[enums.TransactionKind]int),
		failUpdateFor: make(map[uuid.UUID]int),
		clock:         time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (f *fakeWalletRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeWalletRepo) FindWallet(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	w, ok := f.wallets[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *w
	return &copied, nil
}

func (f *fakeWalletRepo) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	if _, exists := f.wallets[wallet.UserID]; exists {
		return errors.New("duplicate key value violates unique constraint wallets_pkey")
	}
	copied := *wallet
	f.wallets[wallet.UserID] = &copied
	return nil
}

func (f *fakeWalletRepo) UpdateWalletVersioned(ctx context.Context, userID uuid.UUID, expectedVersion int64, balancePaise, heldPaise int64) (bool, error) {
	if remaining := f.failUpdateFor[userID]; remaining > 0 {
		f.failUpdateFor[userID] = remaining - 1
		return false, fmt.Errorf("simulated update failure for %s", userID)
	}
	if f.forcedConflicts > 0 {
		f.forcedConflicts--
		return false, nil
	}
	w, ok := f.wallets[userID]
	if !ok || w.Version != expectedVersion {
		return false, nil
	}
	w.BalancePaise = balancePaise
	w.HeldPaise = heldPaise
	w.Version++
	return true, nil
}

func (f *fakeWalletRepo) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	if remaining := f.failCreateTxn[txn.Kind]; remaining > 0 {
		f.failCreateTxn[txn.Kind] = remaining - 1
		return fmt.Errorf("simulated %s failure", txn.Kind)
	}
	if txn.Kind.IsSettlement() && txn.RelatedTransactionID != nil {
		for _, existing := range f.txns {
			if existing.Kind.IsSettlement() && existing.RelatedTransactionID != nil &&
				*existing.RelatedTransactionID == *txn.RelatedTransactionID {
				return errors.New("duplicate key value violates unique constraint ux_wallet_txns_hold_settlement")
			}
		}
	}
	if txn.Kind == enums.TransactionKindTransferCredit && txn.RelatedTransactionID != nil {
		for _, existing := range f.txns {
			if existing.Kind == enums.TransactionKindTransferCredit && existing.RelatedTransactionID != nil &&
				*existing.RelatedTransactionID == *txn.RelatedTransactionID {
				return errors.New("duplicate key value violates unique constraint ux_wallet_txns_transfer_credit")
			}
		}
	}
	copied := *txn
	if copied.CreatedAt.IsZero() {
		f.clock = f.clock.Add(time.Second)
		copied.CreatedAt = f.clock
	}
	f.txns[copied.ID] = &copied
	return nil
}

func (f *fakeWalletRepo) FindTransaction(ctx context.Context, id uuid.UUID) (*models.WalletTransaction, error) {
	txn, ok := f.txns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *txn
	return &copied, nil
}

func (f *fakeWalletRepo) FindSettlementOf(ctx context.Context, holdID uuid.UUID) (*models.WalletTransaction, error) {
	for _, txn := range f.txns {
		if txn.Kind.IsSettlement() && txn.RelatedTransactionID != nil && *txn.RelatedTransactionID == holdID {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWalletRepo) FindCreditOf(ctx context.Context, debitID uuid.UUID) (*models.WalletTransaction, error) {
	for _, txn := range f.txns {
		if txn.Kind == enums.TransactionKindTransferCredit && txn.RelatedTransactionID != nil && *txn.RelatedTransactionID == debitID {
			copied := *txn
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeWalletRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	for _, txn := range f.txns {
		if txn.WalletUserID != userID {
			continue
		}
		if cursor != nil && !txn.CreatedAt.Before(cursor.CreatedAt) {
			continue
		}
		txns = append(txns, *txn)
	}
	sort.Slice(txns, func(i, j int) bool {
		return txns[i].CreatedAt.After(txns[j].CreatedAt)
	})
	if len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}

func (f *fakeWalletRepo) CreateCompensation(ctx context.Context, comp *models.SettlementCompensation) error {
	for _, existing := range f.comps {
		if existing.DebitTransactionID == comp.DebitTransactionID {
			return errors.New("duplicate key value violates unique constraint ux_settlement_comp_debit")
		}
	}
	copied := *comp
	f.comps[copied.ID] = &copied
	return nil
}

func (f *fakeWalletRepo) ListUnresolvedCompensations(ctx context.Context, limit int) ([]models.SettlementCompensation, error) {
	var comps []models.SettlementCompensation
	for _, comp := range f.comps {
		if comp.ResolvedAt == nil {
			comps = append(comps, *comp)
		}
	}
	if len(comps) > limit {
		comps = comps[:limit]
	}
	return comps, nil
}

func (f *fakeWalletRepo) MarkCompensationResolved(ctx context.Context, id uuid.UUID) error {
	comp, ok := f.comps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	comp.ResolvedAt = &now
	return nil
}

func (f *fakeWalletRepo) RecordCompensationAttempt(ctx context.Context, id uuid.UUID, attemptErr error) error {
	comp, ok := f.comps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	comp.AttemptCount++
	if attemptErr != nil {
		msg := attemptErr.Error()
		comp.LastError = &msg
	}
	return nil
}

func (f *fakeWalletRepo) ledgerKinds(userID uuid.UUID) map[enums.TransactionKind]int {
	kinds := make(map[enums.TransactionKind]int)
	for _, txn := range f.txns {
		if txn.WalletUserID == userID {
			kinds[txn.Kind]++
		}
	}
	return kinds
}

// assertInvariants checks the balance arithmetic every wallet must satisfy.
func (f *fakeWalletRepo) assertInvariants(t *testing.T) {
	t.Helper()
	for userID, w := range f.wallets {
		if w.BalancePaise < 0 {
			t.Errorf("wallet %s has negative balance %d", userID, w.BalancePaise)
		}
		if w.HeldPaise < 0 {
			t.Errorf("wallet %s has negative held amount %d", userID, w.HeldPaise)
		}
		if w.HeldPaise > w.BalancePaise {
			t.Errorf("wallet %s holds %d over balance %d", userID, w.HeldPaise, w.BalancePaise)
		}

		var fromLedger int64
		for _, txn := range f.txns {
			if txn.WalletUserID != userID {
				continue
			}
			switch txn.Kind {
			case enums.TransactionKindCredit, enums.TransactionKindTransferCredit:
				fromLedger += txn.AmountPaise
			case enums.TransactionKindDebit, enums.TransactionKindTransferDebit:
				fromLedger -= txn.AmountPaise
			}
		}
		if fromLedger != w.BalancePaise {
			t.Errorf("wallet %s ledger sums to %d but balance is %d", userID, fromLedger, w.BalancePaise)
		}
	}
}

type repoSnapshot struct {
	wallets map[uuid.UUID]models.Wallet
	txns    map[uuid.UUID]models.WalletTransaction
	comps   map[uuid.UUID]models.SettlementCompensation
}

func (f *fakeWalletRepo) snapshot() repoSnapshot {
	snap := repoSnapshot{
		wallets: make(map[uuid.UUID]models.Wallet, len(f.wallets)),
		txns:    make(map[uuid.UUID]models.WalletTransaction, len(f.txns)),
		comps:   make(map[uuid.UUID]models.SettlementCompensation, len(f.comps)),
	}
	for id, w := range f.wallets {
		snap.wallets[id] = *w
	}
	for id, txn := range f.txns {
		snap.txns[id] = *txn
	}
	for id, comp := range f.comps {
		snap.comps[id] = *comp
	}
	return snap
}

func (f *fakeWalletRepo) restore(snap repoSnapshot) {
	f.wallets = make(map[uuid.UUID]*models.Wallet, len(snap.wallets))
	f.txns = make(map[uuid.UUID]*models.WalletTransaction, len(snap.txns))
	f.comps = make(map[uuid.UUID]*models.SettlementCompensation, len(snap.comps))
	for id, w := range snap.wallets {
		copied := w
		f.wallets[id] = &copied
	}
	for id, txn := range snap.txns {
		copied := txn
		f.txns[id] = &copied
	}
	for id, comp := range snap.comps {
		copied := comp
		f.comps[id] = &copied
	}
}

// fakeTxRunner serializes transactions against the in-memory repo and rolls
// the repo back when the body fails, mirroring what Postgres would do.
type fakeTxRunner struct {
	mu   sync.Mutex
	repo *fakeWalletRepo
}

func (r *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.repo.snapshot()
	if err := fn(nil); err != nil {
		r.repo.restore(snap)
		return err
	}
	return nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(t *testing.T, repo *fakeWalletRepo) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeTxRunner{repo: repo}, &stubOutbox{}, Config{
		MutationMaxRetries: 3,
		MutationBackoff:    time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func mustCredit(t *testing.T, svc Service, userID uuid.UUID, amount int64) *models.WalletTransaction {
	t.Helper()
	txn, err := svc.Credit(context.Background(), CreditInput{UserID: userID, AmountPaise: amount, Note: "top-up"})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	return txn
}

func mustHold(t *testing.T, svc Service, userID uuid.UUID, amount int64, orderID uuid.UUID) *models.WalletTransaction {
	t.Helper()
	txn, err := svc.Hold(context.Background(), HoldInput{
		UserID:         userID,
		AmountPaise:    amount,
		RelatedOrderID: &orderID,
		Note:           "order hold",
	})
	if err != nil {
		t.Fatalf("hold: %v", err)
	}
	return txn
}

func TestHoldThenTransferMovesFundsToSeller(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer, seller, orderID := uuid.New(), uuid.New(), uuid.New()

	mustCredit(t, svc, buyer, 1000)
	hold := mustHold(t, svc, buyer, 300, orderID)

	buyerWallet, _ := svc.GetWallet(ctx, buyer)
	if buyerWallet.BalancePaise != 1000 || buyerWallet.HeldPaise != 300 || buyerWallet.Available() != 700 {
		t.Fatalf("unexpected buyer wallet after hold: %+v", buyerWallet)
	}

	result, err := svc.Transfer(ctx, TransferInput{HoldTransactionID: hold.ID, SellerID: seller, Note: "order settled"})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if result.Debit == nil || result.Credit == nil || result.CompensationPending {
		t.Fatalf("expected both transfer legs, got %+v", result)
	}
	if result.Debit.RelatedTransactionID == nil || *result.Debit.RelatedTransactionID != hold.ID {
		t.Fatalf("debit must reference the hold")
	}

	buyerWallet, _ = svc.GetWallet(ctx, buyer)
	if buyerWallet.BalancePaise != 700 || buyerWallet.HeldPaise != 0 {
		t.Fatalf("unexpected buyer wallet after transfer: %+v", buyerWallet)
	}
	sellerWallet, _ := svc.GetWallet(ctx, seller)
	if sellerWallet.BalancePaise != 300 || sellerWallet.HeldPaise != 0 {
		t.Fatalf("unexpected seller wallet after transfer: %+v", sellerWallet)
	}
	repo.assertInvariants(t)
}

func TestHoldRejectedWhenAvailableTooLow(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer := uuid.New()

	mustCredit(t, svc, buyer, 100)
	orderA, orderB := uuid.New(), uuid.New()
	mustHold(t, svc, buyer, 60, orderA)

	_, err := svc.Hold(ctx, HoldInput{UserID: buyer, AmountPaise: 60, RelatedOrderID: &orderB})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}

	wallet, _ := svc.GetWallet(ctx, buyer)
	if wallet.BalancePaise != 100 || wallet.HeldPaise != 60 {
		t.Fatalf("failed hold must not change the wallet: %+v", wallet)
	}
	repo.assertInvariants(t)
}

func TestConcurrentHoldsRespectAvailableBalance(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer := uuid.New()

	mustCredit(t, svc, buyer, 100)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orderID := uuid.New()
			_, errs[i] = svc.Hold(ctx, HoldInput{UserID: buyer, AmountPaise: 60, RelatedOrderID: &orderID})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds):
			lost++
		default:
			t.Fatalf("unexpected hold error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one hold to win, got %d wins / %d rejections", won, lost)
	}

	wallet, _ := svc.GetWallet(ctx, buyer)
	if wallet.BalancePaise != 100 || wallet.HeldPaise != 60 {
		t.Fatalf("unexpected wallet after racing holds: %+v", wallet)
	}
	repo.assertInvariants(t)
}

func TestReleaseReturnsHeldFunds(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer := uuid.New()

	mustCredit(t, svc, buyer, 500)
	hold := mustHold(t, svc, buyer, 200, uuid.New())

	release, err := svc.Release(ctx, ReleaseInput{HoldTransactionID: hold.ID, Note: "order cancelled"})
	if err != nil {
		t.Fatalf("release: %v", err)
	}

	wallet, _ := svc.GetWallet(ctx, buyer)
	if wallet.BalancePaise != 500 || wallet.HeldPaise != 0 {
		t.Fatalf("release must restore available funds: %+v", wallet)
	}

	// Replay returns the recorded outcome without touching the wallet.
	again, err := svc.Release(ctx, ReleaseInput{HoldTransactionID: hold.ID})
	if err != nil {
		t.Fatalf("replayed release: %v", err)
	}
	if again.ID != release.ID {
		t.Fatalf("replay must return the original release transaction")
	}
	if got := repo.ledgerKinds(buyer)[enums.TransactionKindRelease]; got != 1 {
		t.Fatalf("expected exactly one release row, got %d", got)
	}
	repo.assertInvariants(t)
}

func TestTransferReplayIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer, seller := uuid.New(), uuid.New()

	mustCredit(t, svc, buyer, 1000)
	hold := mustHold(t, svc, buyer, 400, uuid.New())

	first, err := svc.Transfer(ctx, TransferInput{HoldTransactionID: hold.ID, SellerID: seller})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	second, err := svc.Transfer(ctx, TransferInput{HoldTransactionID: hold.ID, SellerID: seller})
	if err != nil {
		t.Fatalf("replayed transfer: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replay to be flagged")
	}
	if second.Debit.ID != first.Debit.ID {
		t.Fatalf("replay must return the original debit")
	}
	if second.Credit == nil || second.Credit.ID != first.Credit.ID {
		t.Fatalf("replay must return the original credit")
	}

	sellerWallet, _ := svc.GetWallet(ctx, seller)
	if sellerWallet.BalancePaise != 400 {
		t.Fatalf("seller must be credited exactly once, got %d", sellerWallet.BalancePaise)
	}
	repo.assertInvariants(t)
}

func TestSettledHoldRejectsTheOtherSettlement(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer, seller := uuid.New(), uuid.New()

	mustCredit(t, svc, buyer, 1000)

	released := mustHold(t, svc, buyer, 100, uuid.New())
	if _, err := svc.Release(ctx, ReleaseInput{HoldTransactionID: released.ID}); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := svc.Transfer(ctx, TransferInput{HoldTransactionID: released.ID, SellerID: seller}); !pkgerrors.IsCode(err, pkgerrors.CodeAlreadySettled) {
		t.Fatalf("transfer of a released hold must fail ALREADY_SETTLED, got %v", err)
	}

	transferred := mustHold(t, svc, buyer, 100, uuid.New())
	if _, err := svc.Transfer(ctx, TransferInput{HoldTransactionID: transferred.ID, SellerID: seller}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if _, err := svc.Release(ctx, ReleaseInput{HoldTransactionID: transferred.ID}); !pkgerrors.IsCode(err, pkgerrors.CodeAlreadySettled) {
		t.Fatalf("release of a transferred hold must fail ALREADY_SETTLED, got %v", err)
	}
	repo.assertInvariants(t)
}

func TestTransferSellerCreditFailureRecordsCompensation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer, seller, orderID := uuid.New(), uuid.New(), uuid.New()

	mustCredit(t, svc, buyer, 1000)
	hold := mustHold(t, svc, buyer, 250, orderID)

	repo.failUpdateFor[seller] = 1

	result, err := svc.Transfer(ctx, TransferInput{HoldTransactionID: hold.ID, SellerID: seller})
	if err != nil {
		t.Fatalf("transfer with failing credit leg: %v", err)
	}
	if result.Credit != nil || !result.CompensationPending {
		t.Fatalf("expected compensation-pending result, got %+v", result)
	}

	// The buyer debit stays committed.
	buyerWallet, _ := svc.GetWallet(ctx, buyer)
	if buyerWallet.BalancePaise != 750 || buyerWallet.HeldPaise != 0 {
		t.Fatalf("buyer debit must not be reversed: %+v", buyerWallet)
	}
	sellerWallet, _ := svc.GetWallet(ctx, seller)
	if sellerWallet.BalancePaise != 0 {
		t.Fatalf("seller must not be credited yet: %+v", sellerWallet)
	}

	comps, err := repo.ListUnresolvedCompensations(ctx, 10)
	if err != nil || len(comps) != 1 {
		t.Fatalf("expected one unresolved compensation, got %v %v", comps, err)
	}
	comp := comps[0]
	if comp.DebitTransactionID != result.Debit.ID || comp.SellerID != seller || comp.AmountPaise != 250 {
		t.Fatalf("unexpected compensation row: %+v", comp)
	}

	// The sweep retries the credit leg until it lands.
	credit, err := svc.RetrySellerCredit(ctx, comp)
	if err != nil {
		t.Fatalf("retry seller credit: %v", err)
	}
	if credit.AmountPaise != 250 || credit.WalletUserID != seller {
		t.Fatalf("unexpected retried credit: %+v", credit)
	}
	sellerWallet, _ = svc.GetWallet(ctx, seller)
	if sellerWallet.BalancePaise != 250 {
		t.Fatalf("seller must be credited after retry: %+v", sellerWallet)
	}
	remaining, _ := repo.ListUnresolvedCompensations(ctx, 10)
	if len(remaining) != 0 {
		t.Fatalf("compensation must be resolved after a successful retry")
	}

	// A second retry only confirms the credit.
	again, err := svc.RetrySellerCredit(ctx, comp)
	if err != nil {
		t.Fatalf("repeat retry: %v", err)
	}
	if again.ID != credit.ID {
		t.Fatalf("repeat retry must return the landed credit")
	}
	repo.assertInvariants(t)
}

func TestRacedSellerCreditLandsOnce(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer, seller, orderID := uuid.New(), uuid.New(), uuid.New()

	mustCredit(t, svc, buyer, 1000)
	hold := mustHold(t, svc, buyer, 250, orderID)

	repo.failUpdateFor[seller] = 1
	result, err := svc.Transfer(ctx, TransferInput{HoldTransactionID: hold.ID, SellerID: seller})
	if err != nil {
		t.Fatalf("transfer with failing credit leg: %v", err)
	}
	if !result.CompensationPending {
		t.Fatalf("expected compensation-pending result, got %+v", result)
	}

	// A competing retry lands its credit after this attempt's dedup check: the
	// partial unique index is the last line of defence.
	debitID := result.Debit.ID
	winner := &models.WalletTransaction{
		ID:                   uuid.New(),
		WalletUserID:         seller,
		AmountPaise:          250,
		Kind:                 enums.TransactionKindTransferCredit,
		Status:               enums.TransactionStatusCompleted,
		RelatedTransactionID: &debitID,
		CounterpartyUserID:   &buyer,
	}
	if err := repo.CreateTransaction(ctx, winner); err != nil {
		t.Fatalf("seed competing credit: %v", err)
	}
	repo.wallets[seller] = &models.Wallet{UserID: seller, BalancePaise: 250, Version: 1}

	credit, err := svc.(*service).creditSellerForTransfer(ctx, seller, result.Debit)
	if err != nil {
		t.Fatalf("raced credit leg must resolve to the landed credit: %v", err)
	}
	if credit.ID != winner.ID {
		t.Fatalf("expected the competing credit back, got %s", credit.ID)
	}

	sellerWallet, _ := svc.GetWallet(ctx, seller)
	if sellerWallet.BalancePaise != 250 {
		t.Fatalf("seller must be credited exactly once, got %d", sellerWallet.BalancePaise)
	}
	if got := repo.ledgerKinds(seller)[enums.TransactionKindTransferCredit]; got != 1 {
		t.Fatalf("expected one transfer credit row, got %d", got)
	}
	repo.assertInvariants(t)
}

func TestVersionConflictRetriesThenSucceeds(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer := uuid.New()

	repo.forcedConflicts = 2
	mustCredit(t, svc, buyer, 100)

	wallet, _ := svc.GetWallet(context.Background(), buyer)
	if wallet.BalancePaise != 100 {
		t.Fatalf("credit must land after retrying conflicts: %+v", wallet)
	}
}

func TestVersionConflictExhaustionSurfacesContention(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	buyer := uuid.New()

	repo.forcedConflicts = 100
	_, err := svc.Credit(context.Background(), CreditInput{UserID: buyer, AmountPaise: 100})
	if !pkgerrors.IsCode(err, pkgerrors.CodeContention) {
		t.Fatalf("expected CONTENTION after exhausting retries, got %v", err)
	}
}

func TestDebitRespectsHeldFunds(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	user := uuid.New()

	mustCredit(t, svc, user, 500)
	mustHold(t, svc, user, 400, uuid.New())

	if _, err := svc.Debit(ctx, DebitInput{UserID: user, AmountPaise: 200, Note: "withdraw"}); !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("withdrawal beyond available must fail, got %v", err)
	}
	if _, err := svc.Debit(ctx, DebitInput{UserID: user, AmountPaise: 100, Note: "withdraw"}); err != nil {
		t.Fatalf("withdrawal within available: %v", err)
	}

	wallet, _ := svc.GetWallet(ctx, user)
	if wallet.BalancePaise != 400 || wallet.HeldPaise != 400 || wallet.Available() != 0 {
		t.Fatalf("unexpected wallet after withdrawal: %+v", wallet)
	}
	repo.assertInvariants(t)
}

func TestGetWalletDefaultsToZero(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)

	userID := uuid.New()
	wallet, err := svc.GetWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if wallet.UserID != userID || wallet.BalancePaise != 0 || wallet.HeldPaise != 0 {
		t.Fatalf("untouched wallet must read as zero: %+v", wallet)
	}
	if len(repo.wallets) != 0 {
		t.Fatalf("reads must not materialize wallet rows")
	}
}

func TestListTransactionsPaginates(t *testing.T) {
	ctx := context.Background()
	repo := newFakeWalletRepo()
	svc := newTestService(t, repo)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		mustCredit(t, svc, user, int64(100*(i+1)))
	}

	page, err := svc.ListTransactions(ctx, user, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(page.Transactions) != 2 || page.NextCursor == "" {
		t.Fatalf("expected a full first page with cursor, got %d items", len(page.Transactions))
	}
	if page.Transactions[0].AmountPaise != 300 {
		t.Fatalf("expected newest first, got %d", page.Transactions[0].AmountPaise)
	}

	rest, err := svc.ListTransactions(ctx, user, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest.Transactions) != 1 || rest.NextCursor != "" {
		t.Fatalf("expected final page with one item, got %d", len(rest.Transactions))
	}
}
