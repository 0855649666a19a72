package enums

import "fmt"

// ReconciliationReason explains why a webhook event was parked for review
// instead of being applied to an order.
type ReconciliationReason string

const (
	ReconciliationReasonOrderNotFound    ReconciliationReason = "order_not_found"
	ReconciliationReasonDuplicatePayment ReconciliationReason = "duplicate_payment"
	ReconciliationReasonCurrencyMismatch ReconciliationReason = "currency_mismatch"
	ReconciliationReasonUnmatchedEvent   ReconciliationReason = "unmatched_event"
)

var validReconciliationReasons = []ReconciliationReason{
	ReconciliationReasonOrderNotFound,
	ReconciliationReasonDuplicatePayment,
	ReconciliationReasonCurrencyMismatch,
	ReconciliationReasonUnmatchedEvent,
}

// String implements fmt.Stringer.
func (r ReconciliationReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReconciliationReason.
func (r ReconciliationReason) IsValid() bool {
	for _, candidate := range validReconciliationReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReconciliationReason converts raw input into a ReconciliationReason.
func ParseReconciliationReason(value string) (ReconciliationReason, error) {
	for _, candidate := range validReconciliationReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reconciliation reason %q", value)
}
