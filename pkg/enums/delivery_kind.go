package enums

import "fmt"

// DeliveryKind maps to the delivery_kind enum in Postgres.
type DeliveryKind string

const (
	DeliveryKindDelivery   DeliveryKind = "delivery"
	DeliveryKindSelfPickup DeliveryKind = "self_pickup"
)

var validDeliveryKinds = []DeliveryKind{
	DeliveryKindDelivery,
	DeliveryKindSelfPickup,
}

// String implements fmt.Stringer.
func (k DeliveryKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known DeliveryKind.
func (k DeliveryKind) IsValid() bool {
	for _, candidate := range validDeliveryKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseDeliveryKind converts raw input into a DeliveryKind.
func ParseDeliveryKind(value string) (DeliveryKind, error) {
	for _, candidate := range validDeliveryKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery kind %q", value)
}
