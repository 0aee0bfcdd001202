package enums

import "fmt"

// TransactionType maps to the transaction_type_enum enum in Postgres.
type TransactionType string

const (
	TransactionTypePurchase        TransactionType = "purchase"
	TransactionTypeSale            TransactionType = "sale"
	TransactionTypeAdjustment      TransactionType = "adjustment"
	TransactionTypeRestock         TransactionType = "restock"
	TransactionTypeDamage          TransactionType = "damage"
	TransactionTypeReturn          TransactionType = "return"
	TransactionTypeReservationHold TransactionType = "reservation_hold"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePurchase,
	TransactionTypeSale,
	TransactionTypeAdjustment,
	TransactionTypeRestock,
	TransactionTypeDamage,
	TransactionTypeReturn,
	TransactionTypeReservationHold,
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// CountsTowardStock reports whether transactions of this type move on-hand
// stock. Reservation holds are informational and excluded from ledger folds.
func (t TransactionType) CountsTowardStock() bool {
	return t != TransactionTypeReservationHold
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
