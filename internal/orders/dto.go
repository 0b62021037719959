package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/agribazaar/agribazaar-backend/pkg/db/models"
	"github.com/agribazaar/agribazaar-backend/pkg/enums"
	"github.com/agribazaar/agribazaar-backend/pkg/pagination"
)

// CreateLineItemInput is one priced item on a new order.
type CreateLineItemInput struct {
	ProductID      *uuid.UUID
	Name           string
	UnitPricePaise int64
	Qty            int
}

// CreateOrderInput captures everything needed to place an order and hold the
// buyer's funds.
type CreateOrderInput struct {
	BuyerID      uuid.UUID
	SellerID     uuid.UUID
	DeliveryKind enums.DeliveryKind
	IsPrelisted  bool
	Items        []CreateLineItemInput
}

// TransitionInput identifies the order and the actor driving a lifecycle
// transition.
type TransitionInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	// HarvestDate is only consulted on Confirm for prelisted orders.
	HarvestDate *time.Time
}

// CancelInput carries the cancellation context.
type CancelInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	Reason      string
}

// ListInput selects which orders to page through.
type ListInput struct {
	ActorUserID uuid.UUID
	// Side is "buyer" or "seller"; it decides which column ActorUserID
	// filters on.
	Side       string
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// OrderPage is one page of orders, newest first.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
}

// OrderView decorates an order with its computed confirmation deadline.
type OrderView struct {
	Order                *models.Order
	ConfirmationDeadline *time.Time
}
