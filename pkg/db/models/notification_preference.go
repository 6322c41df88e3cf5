package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/types"
)

// NotificationPreference holds per-user, per-type channel settings. One row
// per (user, type); when absent the dispatcher falls back to in-app only.
// Quiet hours are local "HH:MM" strings; an empty pair disables the window.
type NotificationPreference struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID              `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_notification_prefs_user_type"`
	Type            enums.NotificationType `gorm:"column:notification_type;type:text;not null;uniqueIndex:ux_notification_prefs_user_type"`
	Channels        types.Channels         `gorm:"column:channels;type:jsonb;serializer:json"`
	Enabled         bool                   `gorm:"column:enabled;not null;default:true"`
	QuietHoursStart *string                `gorm:"column:quiet_hours_start;type:text"`
	QuietHoursEnd   *string                `gorm:"column:quiet_hours_end;type:text"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
