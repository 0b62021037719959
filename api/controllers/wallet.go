package controllers

import (
	"net/http"
	"strings"

	"github.com/agribazaar/agribazaar-backend/api/middleware"
	"github.com/agribazaar/agribazaar-backend/api/responses"
	"github.com/agribazaar/agribazaar-backend/api/validators"
	"github.com/agribazaar/agribazaar-backend/internal/wallet"
	"github.com/agribazaar/agribazaar-backend/pkg/logger"
	"github.com/agribazaar/agribazaar-backend/pkg/pagination"
)

type walletBalanceResponse struct {
	UserID         string `json:"user_id"`
	BalancePaise   int64  `json:"balance_paise"`
	HeldPaise      int64  `json:"held_paise"`
	AvailablePaise int64  `json:"available_paise"`
	Version        int64  `json:"version"`
}

type walletMutationRequest struct {
	AmountPaise int64  `json:"amount_paise" validate:"required,gt=0"`
	Note        string `json:"note" validate:"max=500"`
}

// WalletBalance returns the caller's wallet, zero-valued when no funds have
// ever moved.
func WalletBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserUUIDFromContext(r.Context())

		account, err := svc.GetWallet(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletBalanceResponse{
			UserID:         account.UserID.String(),
			BalancePaise:   account.BalancePaise,
			HeldPaise:      account.HeldPaise,
			AvailablePaise: account.Available(),
			Version:        account.Version,
		})
	}
}

// WalletTransactions returns one page of the caller's ledger, newest first.
func WalletTransactions(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserUUIDFromContext(r.Context())

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := svc.ListTransactions(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// WalletTopup credits the caller's spendable balance.
func WalletTopup(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserUUIDFromContext(r.Context())

		var req walletMutationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Credit(r.Context(), wallet.CreditInput{
			UserID:      userID,
			AmountPaise: req.AmountPaise,
			Note:        noteOrDefault(req.Note, "wallet top-up"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// WalletWithdraw debits the caller's spendable balance. Held funds are not
// withdrawable.
func WalletWithdraw(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserUUIDFromContext(r.Context())

		var req walletMutationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Debit(r.Context(), wallet.DebitInput{
			UserID:      userID,
			AmountPaise: req.AmountPaise,
			Note:        noteOrDefault(req.Note, "wallet withdrawal"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

func noteOrDefault(note, fallback string) string {
	if strings.TrimSpace(note) == "" {
		return fallback
	}
	return note
}
