package enums

import "fmt"

// TransactionKind maps to the transaction_kind enum in Postgres.
type TransactionKind string

const (
	TransactionKindCredit         TransactionKind = "credit"
	TransactionKindDebit          TransactionKind = "debit"
	TransactionKindHold           TransactionKind = "hold"
	TransactionKindRelease        TransactionKind = "release"
	TransactionKindTransferDebit  TransactionKind = "transfer_debit"
	TransactionKindTransferCredit TransactionKind = "transfer_credit"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindCredit,
	TransactionKindDebit,
	TransactionKindHold,
	TransactionKindRelease,
	TransactionKindTransferDebit,
	TransactionKindTransferCredit,
}

// String implements fmt.Stringer.
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known TransactionKind.
func (k TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsSettlement reports whether the kind terminally resolves a hold.
func (k TransactionKind) IsSettlement() bool {
	return k == TransactionKindRelease || k == TransactionKindTransferDebit
}

// ParseTransactionKind converts raw input into a TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}
