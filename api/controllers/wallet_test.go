package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/agribazaar/agribazaar-backend/api/middleware"
	"github.com/agribazaar/agribazaar-backend/internal/wallet"
	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/enums"
	pkgerrors "github.com/agribazaar/agribazaar-backend/pkg/errors"
	"github.com/agribazaar/agribazaar-backend/pkg/pagination"
	"github.com/agribazaar/agribazaar-backend/pkg/types"
)

type stubWalletService struct {
	wallet     *models.Wallet
	creditErr  error
	debitErr   error
	lastCredit wallet.CreditInput
	lastDebit  wallet.DebitInput
}

func (s *stubWalletService) GetWallet(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if s.wallet != nil {
		return s.wallet, nil
	}
	return &models.Wallet{UserID: userID}, nil
}

func (s *stubWalletService) ListTransactions(context.Context, uuid.UUID, pagination.Params) (*wallet.TransactionPage, error) {
	return &wallet.TransactionPage{}, nil
}

func (s *stubWalletService) Credit(_ context.Context, input wallet.CreditInput) (*models.WalletTransaction, error) {
	if s.creditErr != nil {
		return nil, s.creditErr
	}
	s.lastCredit = input
	return &models.WalletTransaction{ID: uuid.New(), Kind: enums.TransactionKindCredit, AmountPaise: input.AmountPaise}, nil
}

func (s *stubWalletService) Debit(_ context.Context, input wallet.DebitInput) (*models.WalletTransaction, error) {
	if s.debitErr != nil {
		return nil, s.debitErr
	}
	s.lastDebit = input
	return &models.WalletTransaction{ID: uuid.New(), Kind: enums.TransactionKindDebit, AmountPaise: input.AmountPaise}, nil
}

func (s *stubWalletService) Hold(context.Context, wallet.HoldInput) (*models.WalletTransaction, error) {
	return nil, nil
}

func (s *stubWalletService) Release(context.Context, wallet.ReleaseInput) (*models.WalletTransaction, error) {
	return nil, nil
}

func (s *stubWalletService) Transfer(context.Context, wallet.TransferInput) (*wallet.TransferResult, error) {
	return nil, nil
}

func (s *stubWalletService) RetrySellerCredit(context.Context, models.SettlementCompensation) (*models.WalletTransaction, error) {
	return nil, nil
}

func (s *stubWalletService) PendingCompensations(context.Context, int) ([]models.SettlementCompensation, error) {
	return nil, nil
}

func walletRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func TestWalletBalanceReturnsZeroValuedWallet(t *testing.T) {
	userID := uuid.New()
	svc := &stubWalletService{}

	req := walletRequest(http.MethodGet, "/api/v1/wallet", "", userID)
	resp := httptest.NewRecorder()
	WalletBalance(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["user_id"] != userID.String() {
		t.Fatalf("unexpected user_id %v", data["user_id"])
	}
	if data["available_paise"].(float64) != 0 {
		t.Fatalf("expected zero available balance, got %v", data["available_paise"])
	}
}

func TestWalletTopupCreditsCaller(t *testing.T) {
	userID := uuid.New()
	svc := &stubWalletService{}

	req := walletRequest(http.MethodPost, "/api/v1/wallet/topup", `{"amount_paise":5000,"note":"festival budget"}`, userID)
	resp := httptest.NewRecorder()
	WalletTopup(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCredit.UserID != userID {
		t.Fatalf("credit went to %s, expected %s", svc.lastCredit.UserID, userID)
	}
	if svc.lastCredit.AmountPaise != 5000 {
		t.Fatalf("unexpected amount %d", svc.lastCredit.AmountPaise)
	}
	if svc.lastCredit.Note != "festival budget" {
		t.Fatalf("unexpected note %q", svc.lastCredit.Note)
	}
}

func TestWalletTopupRejectsNonPositiveAmount(t *testing.T) {
	svc := &stubWalletService{}

	req := walletRequest(http.MethodPost, "/api/v1/wallet/topup", `{"amount_paise":0}`, uuid.New())
	resp := httptest.NewRecorder()
	WalletTopup(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestWalletWithdrawSurfacesInsufficientFunds(t *testing.T) {
	svc := &stubWalletService{
		debitErr: pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance too low"),
	}

	req := walletRequest(http.MethodPost, "/api/v1/wallet/withdraw", `{"amount_paise":99999}`, uuid.New())
	resp := httptest.NewRecorder()
	WalletWithdraw(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInsufficientFunds) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}
