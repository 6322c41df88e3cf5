package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Luksow29/classic-offset-backend/internal/timeline"
)

// OrderView is the collaborator-facing read model for one order: the stored
// row plus the derived display status and the projected timeline.
type OrderView struct {
	ID             uuid.UUID           `json:"id"`
	CustomerID     uuid.UUID           `json:"customer_id"`
	Status         string              `json:"status"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	AmountReceived decimal.Decimal     `json:"amount_received"`
	BalanceAmount  decimal.Decimal     `json:"balance_amount"`
	DeliveryDate   *time.Time          `json:"delivery_date,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Timeline       timeline.Projection `json:"timeline"`
}
