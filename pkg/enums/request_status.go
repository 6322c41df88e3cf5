package enums

import "fmt"

// RequestStatus tracks the overall lifecycle of an order request.
type RequestStatus string

const (
	RequestStatusPending         RequestStatus = "pending"
	RequestStatusPendingApproval RequestStatus = "pending_approval"
	RequestStatusQuoted          RequestStatus = "quoted"
	RequestStatusAccepted        RequestStatus = "accepted"
	RequestStatusApproved        RequestStatus = "approved"
	RequestStatusRejected        RequestStatus = "rejected"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusPendingApproval,
	RequestStatusQuoted,
	RequestStatusAccepted,
	RequestStatusApproved,
	RequestStatusRejected,
}

// String implements fmt.Stringer.
func (r RequestStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequestStatus.
func (r RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
