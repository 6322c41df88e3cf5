package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
)

// OutboxEvent is an append-only change event written in the same transaction
// as the row mutation it describes. The feed publisher drains unpublished rows
// onto the change-event feed.
type OutboxEvent struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Entity       enums.FeedEntity `gorm:"column:entity;type:text;not null"`
	Op           enums.FeedOp     `gorm:"column:op;type:text;not null"`
	RowID        string           `gorm:"column:row_id;type:text;not null"`
	Payload      json.RawMessage  `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	PublishedAt  *time.Time       `gorm:"column:published_at"`
	AttemptCount int              `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string          `gorm:"column:last_error"`
}
