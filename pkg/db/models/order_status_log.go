package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusLog is an append-only status entry for an order. Rows are never
// updated or deleted; Seq records arrival order and breaks UpdatedAt ties.
type OrderStatusLog struct {
	Seq       int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	Status    string    `gorm:"column:status;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the legacy table name.
func (OrderStatusLog) TableName() string {
	return "order_status_log"
}
