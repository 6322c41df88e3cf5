package enums

import "fmt"

// FeedOp names a change-event operation on the entity feed.
type FeedOp string

const (
	FeedOpInsert FeedOp = "insert"
	FeedOpUpdate FeedOp = "update"
	FeedOpDelete FeedOp = "delete"
)

var validFeedOps = []FeedOp{FeedOpInsert, FeedOpUpdate, FeedOpDelete}

// IsValid reports whether the value is a known FeedOp.
func (f FeedOp) IsValid() bool {
	for _, candidate := range validFeedOps {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeedOp converts raw input into a FeedOp.
func ParseFeedOp(value string) (FeedOp, error) {
	for _, candidate := range validFeedOps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feed op %q", value)
}

// FeedEntity names the entity collections carried on the change feed.
type FeedEntity string

const (
	EntityOrders         FeedEntity = "orders"
	EntityOrderRequests  FeedEntity = "order_requests"
	EntityOrderStatusLog FeedEntity = "order_status_log"
	EntityNotifications  FeedEntity = "notifications"
)
