package outbox

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
)

// Service records change events in the same transaction as the row mutation
// they describe. The feed publisher drains them onto the change-event feed,
// so a committed mutation is eventually visible to every subscriber.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit queues a change event inside tx. Row must marshal to JSON; the
// payload column holds the row alone, the event envelope lives in the
// remaining columns.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, entity enums.FeedEntity, op enums.FeedOp, rowID string, row any) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	event := models.OutboxEvent{
		Entity:  entity,
		Op:      op,
		RowID:   rowID,
		Payload: mustRaw(row),
	}
	if err := s.repo.Insert(tx, event); err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"entity": entity,
			"op":     op,
			"row_id": rowID,
		})
		s.logg.Debug(logCtx, "outbox event queued")
	}
	return nil
}

func mustRaw(row any) json.RawMessage {
	if row == nil {
		return nil
	}
	if raw, ok := row.(json.RawMessage); ok {
		return raw
	}
	encoded, err := json.Marshal(row)
	if err != nil {
		return nil
	}
	return encoded
}
