package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/types"
)

// OrderRequest is a customer-submitted proposal that may be quoted, accepted,
// rejected, or approved into an Order. PricingStatus is the negotiation-state
// flag guarded by conditional updates; it is the system's only
// concurrency-control mechanism.
type OrderRequest struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	RequestData      types.RequestData    `gorm:"column:request_data;type:jsonb;serializer:json"`
	Status           enums.RequestStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	PricingStatus    enums.PricingStatus  `gorm:"column:pricing_status;type:text;not null;default:'pending'"`
	ServiceCharges   types.ServiceCharges `gorm:"column:service_charges;type:jsonb;serializer:json"`
	AdminTotalAmount *decimal.Decimal     `gorm:"column:admin_total_amount;type:numeric(12,2)"`
	QuoteSentAt      *time.Time           `gorm:"column:quote_sent_at"`
	QuoteResponseAt  *time.Time           `gorm:"column:quote_response_at"`
	RejectionReason  *string              `gorm:"column:rejection_reason;type:text"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
