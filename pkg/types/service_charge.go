package types

import (
	"time"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceCharge is a named, individually priced addition to a request's base
// amount. Charges are immutable once added to a quote.
type ServiceCharge struct {
	ID          uuid.UUID               `json:"id"`
	Description string                  `json:"description"`
	Amount      decimal.Decimal         `json:"amount"`
	Type        enums.ServiceChargeType `json:"type"`
	AddedAt     time.Time               `json:"added_at"`
}

// ServiceCharges is the ordered charge list stored on an order request.
type ServiceCharges []ServiceCharge

// Total sums the charge amounts.
func (s ServiceCharges) Total() decimal.Decimal {
	total := decimal.Zero
	for _, charge := range s {
		total = total.Add(charge.Amount)
	}
	return total
}
