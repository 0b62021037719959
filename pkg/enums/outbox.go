package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder  OutboxAggregateType = "order"
	AggregateWallet OutboxAggregateType = "wallet"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateWallet,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderCreated      OutboxEventType = "order_created"
	EventOrderConfirmed    OutboxEventType = "order_confirmed"
	EventOrderProcessing   OutboxEventType = "order_processing"
	EventOrderDispatched   OutboxEventType = "order_dispatched"
	EventOrderDelivered    OutboxEventType = "order_delivered"
	EventOrderCancelled    OutboxEventType = "order_cancelled"
	EventOrderAutoCancel   OutboxEventType = "order_auto_cancelled"
	EventOrderSettled      OutboxEventType = "order_settled"
	EventWalletCredited    OutboxEventType = "wallet_credited"
	EventWalletDebited     OutboxEventType = "wallet_debited"
	EventSettlementRetried OutboxEventType = "settlement_retried"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderConfirmed,
	EventOrderProcessing,
	EventOrderDispatched,
	EventOrderDelivered,
	EventOrderCancelled,
	EventOrderAutoCancel,
	EventOrderSettled,
	EventWalletCredited,
	EventWalletDebited,
	EventSettlementRetried,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
