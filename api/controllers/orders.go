package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/agribazaar/agribazaar-backend/api/middleware"
	"github.com/agribazaar/agribazaar-backend/api/responses"
	"github.com/agribazaar/agribazaar-backend/api/validators"
	"github.com/agribazaar/agribazaar-backend/internal/orders"
	"github.com/agribazaar/agribazaar-backend/pkg/enums"
	pkgerrors "github.com/agribazaar/agribazaar-backend/pkg/errors"
	"github.com/agribazaar/agribazaar-backend/pkg/logger"
	"github.com/agribazaar/agribazaar-backend/pkg/pagination"
)

type createOrderRequest struct {
	SellerID     string                 `json:"seller_id" validate:"required,uuid"`
	DeliveryKind string                 `json:"delivery_kind" validate:"omitempty,oneof=delivery self_pickup"`
	IsPrelisted  bool                   `json:"is_prelisted"`
	Items        []createOrderItemInput `json:"items" validate:"required,min=1,dive"`
}

type createOrderItemInput struct {
	ProductID      string `json:"product_id" validate:"omitempty,uuid"`
	Name           string `json:"name" validate:"required,max=200"`
	UnitPricePaise int64  `json:"unit_price_paise" validate:"required,gt=0"`
	Qty            int    `json:"qty" validate:"required,gt=0"`
}

type confirmOrderRequest struct {
	HarvestDate *time.Time `json:"harvest_date"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// OrderCreate places a new order and escrows the buyer's funds.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID := middleware.UserUUIDFromContext(r.Context())

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sellerID, err := uuid.Parse(req.SellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "seller_id must be a valid uuid"))
			return
		}

		input := orders.CreateOrderInput{
			BuyerID:      buyerID,
			SellerID:     sellerID,
			DeliveryKind: enums.DeliveryKind(req.DeliveryKind),
			IsPrelisted:  req.IsPrelisted,
		}
		for _, item := range req.Items {
			lineItem := orders.CreateLineItemInput{
				Name:           item.Name,
				UnitPricePaise: item.UnitPricePaise,
				Qty:            item.Qty,
			}
			if item.ProductID != "" {
				productID, parseErr := uuid.Parse(item.ProductID)
				if parseErr != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be a valid uuid"))
					return
				}
				lineItem.ProductID = &productID
			}
			input.Items = append(input.Items, lineItem)
		}

		view, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// OrderGet returns a single order the caller participates in.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID := middleware.UserUUIDFromContext(r.Context())
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), orderID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// OrderList returns one page of the caller's orders, buyer side by default.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID := middleware.UserUUIDFromContext(r.Context())

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.ListInput{
			ActorUserID: actorID,
			Side:        strings.TrimSpace(r.URL.Query().Get("side")),
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			input.Status = &status
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// OrderConfirm moves a pending order to confirmed. Seller only; prelisted
// orders may pin a harvest date here.
func OrderConfirm(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID := middleware.UserUUIDFromContext(r.Context())
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req confirmOrderRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Confirm(r.Context(), orders.TransitionInput{
			OrderID:     orderID,
			ActorUserID: actorID,
			HarvestDate: req.HarvestDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderTransition builds a handler for the simple lifecycle transitions.
func OrderTransition(logg *logger.Logger, apply func(*http.Request, orders.TransitionInput) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID := middleware.UserUUIDFromContext(r.Context())
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := apply(r, orders.TransitionInput{OrderID: orderID, ActorUserID: actorID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// StartProcessing adapts orders.Service.StartProcessing for OrderTransition.
func StartProcessing(svc orders.Service) func(*http.Request, orders.TransitionInput) (any, error) {
	return func(r *http.Request, input orders.TransitionInput) (any, error) {
		return svc.StartProcessing(r.Context(), input)
	}
}

// MarkOutForDelivery adapts orders.Service.MarkOutForDelivery.
func MarkOutForDelivery(svc orders.Service) func(*http.Request, orders.TransitionInput) (any, error) {
	return func(r *http.Request, input orders.TransitionInput) (any, error) {
		return svc.MarkOutForDelivery(r.Context(), input)
	}
}

// MarkDelivered adapts orders.Service.MarkDelivered.
func MarkDelivered(svc orders.Service) func(*http.Request, orders.TransitionInput) (any, error) {
	return func(r *http.Request, input orders.TransitionInput) (any, error) {
		return svc.MarkDelivered(r.Context(), input)
	}
}

// OrderCancel cancels an order and releases the escrow back to the buyer.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID := middleware.UserUUIDFromContext(r.Context())
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelOrderRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(r.Context(), orders.CancelInput{
			OrderID:     orderID,
			ActorUserID: actorID,
			Reason:      req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderID")
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a valid uuid")
	}
	return orderID, nil
}
