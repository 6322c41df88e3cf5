package feed

import (
	"context"
	"encoding/json"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
)

// Event is a single change notification for one entity row. The feed carries
// no sequence numbers or versions: consumers apply last-delivered-wins merge
// semantics, and a missed event can only be recovered by a reconciling
// refetch, never by replay.
type Event struct {
	Entity enums.FeedEntity `json:"entity"`
	Op     enums.FeedOp     `json:"op"`
	RowID  string           `json:"row_id"`
	Row    json.RawMessage  `json:"row,omitempty"`
}

// Stream delivers events for one subscription. The Events channel closes on
// disconnect; Err reports why after the channel closed.
type Stream interface {
	Events() <-chan Event
	Err() error
	Close() error
}

// Feed is the narrow change-event transport the core depends on.
type Feed interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, entity enums.FeedEntity) (Stream, error)
}
