package enums

import "fmt"

// PricingStatus tracks the quote-negotiation round of an order request.
type PricingStatus string

const (
	PricingStatusPending         PricingStatus = "pending"
	PricingStatusPendingApproval PricingStatus = "pending_approval"
	PricingStatusQuoted          PricingStatus = "quoted"
	PricingStatusAccepted        PricingStatus = "accepted"
	PricingStatusRejected        PricingStatus = "rejected"
	PricingStatusApproved        PricingStatus = "approved"
)

var validPricingStatuses = []PricingStatus{
	PricingStatusPending,
	PricingStatusPendingApproval,
	PricingStatusQuoted,
	PricingStatusAccepted,
	PricingStatusRejected,
	PricingStatusApproved,
}

// String implements fmt.Stringer.
func (p PricingStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PricingStatus.
func (p PricingStatus) IsValid() bool {
	for _, candidate := range validPricingStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the quote round can no longer change.
// Accepted and rejected close the round; approved closes the request.
func (p PricingStatus) IsTerminal() bool {
	return p == PricingStatusAccepted || p == PricingStatusRejected || p == PricingStatusApproved
}

// CanReceiveQuote reports whether an admin may send a quote from this state.
func (p PricingStatus) CanReceiveQuote() bool {
	return p == PricingStatusPending || p == PricingStatusPendingApproval
}

// ParsePricingStatus converts raw input into a PricingStatus.
func ParsePricingStatus(value string) (PricingStatus, error) {
	for _, candidate := range validPricingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing status %q", value)
}
