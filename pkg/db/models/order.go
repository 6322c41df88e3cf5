package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a confirmed, priced print job belonging to a customer. The current
// display status is never stored on this row; it is derived from the
// order_status_log entries.
type Order struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     uuid.UUID        `gorm:"column:customer_id;type:uuid;not null"`
	TotalAmount    decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null"`
	AmountReceived decimal.Decimal  `gorm:"column:amount_received;type:numeric(12,2);not null;default:0"`
	BalanceAmount  *decimal.Decimal `gorm:"column:balance_amount;type:numeric(12,2)"`
	DeliveryDate   *time.Time       `gorm:"column:delivery_date"`
	IsDeleted      bool             `gorm:"column:is_deleted;not null;default:false"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Balance returns the stored balance when present, otherwise
// total_amount - amount_received.
func (o Order) Balance() decimal.Decimal {
	if o.BalanceAmount != nil {
		return *o.BalanceAmount
	}
	return o.TotalAmount.Sub(o.AmountReceived)
}
