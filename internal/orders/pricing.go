package orders

import (
	"github.com/shopspring/decimal"

	"github.com/agribazaar/agribazaar-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// DeliveryFeePaise prices the delivery leg of an order: a percentage of the
// subtotal with a floor, rounded up to a whole paisa. Self-pickup orders carry
// no fee.
func DeliveryFeePaise(subtotalPaise int64, kind enums.DeliveryKind, percent decimal.Decimal, minPaise int64) int64 {
	if kind == enums.DeliveryKindSelfPickup {
		return 0
	}
	fee := decimal.NewFromInt(subtotalPaise).Mul(percent).Div(hundred).Ceil().IntPart()
	if fee < minPaise {
		return minPaise
	}
	return fee
}
