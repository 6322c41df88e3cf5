package requests

import (
	"time"

	"github.com/google/uuid"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/types"
)

// RequestView is the customer-facing read model for one order request: the
// stored row plus the computed pricing breakdown.
type RequestView struct {
	ID              uuid.UUID            `json:"id"`
	CustomerID      uuid.UUID            `json:"customer_id"`
	RequestData     types.RequestData    `json:"request_data"`
	Status          enums.RequestStatus  `json:"status"`
	PricingStatus   enums.PricingStatus  `json:"pricing_status"`
	ServiceCharges  types.ServiceCharges `json:"service_charges"`
	Pricing         PricingSummary       `json:"pricing"`
	QuoteSentAt     *time.Time           `json:"quote_sent_at,omitempty"`
	QuoteResponseAt *time.Time           `json:"quote_response_at,omitempty"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}
