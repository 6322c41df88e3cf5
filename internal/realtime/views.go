package realtime

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/Luksow29/classic-offset-backend/internal/notifications"
	"github.com/Luksow29/classic-offset-backend/internal/orders"
	"github.com/Luksow29/classic-offset-backend/internal/requests"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/feed"
)

// The typed view constructors below pair an entity topic with the matching
// store snapshot, filtered to one customer, user, or order. Feed rows carry
// the model's marshaled field names; the match decoders mirror them.

type customerScopedRow struct {
	CustomerID uuid.UUID
}

type userScopedRow struct {
	UserID uuid.UUID
}

type orderScopedRow struct {
	OrderID uuid.UUID
}

// SubscribeCustomerOrders opens a live view of one customer's orders.
func (h *Hub) SubscribeCustomerOrders(ctx context.Context, repo orders.Repository, customerID uuid.UUID) (*Handle, error) {
	topic := Topic{
		Entity: enums.EntityOrders,
		Match: func(event feed.Event) bool {
			var row customerScopedRow
			if err := json.Unmarshal(event.Row, &row); err != nil {
				return false
			}
			return row.CustomerID == customerID
		},
	}
	snapshot := func(ctx context.Context) ([]Row, error) {
		records, err := repo.ListCustomerOrders(ctx, customerID)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(records))
		for i := range records {
			data, err := json.Marshal(records[i])
			if err != nil {
				return nil, err
			}
			rows = append(rows, Row{ID: records[i].ID.String(), Data: data})
		}
		return rows, nil
	}
	return h.Subscribe(ctx, topic, snapshot)
}

// SubscribeCustomerRequests opens a live view of one customer's order
// requests, quote state included.
func (h *Hub) SubscribeCustomerRequests(ctx context.Context, repo requests.Repository, customerID uuid.UUID) (*Handle, error) {
	topic := Topic{
		Entity: enums.EntityOrderRequests,
		Match: func(event feed.Event) bool {
			var row customerScopedRow
			if err := json.Unmarshal(event.Row, &row); err != nil {
				return false
			}
			return row.CustomerID == customerID
		},
	}
	snapshot := func(ctx context.Context) ([]Row, error) {
		records, err := repo.ListCustomerRequests(ctx, customerID)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(records))
		for i := range records {
			data, err := json.Marshal(records[i])
			if err != nil {
				return nil, err
			}
			rows = append(rows, Row{ID: records[i].ID.String(), Data: data})
		}
		return rows, nil
	}
	return h.Subscribe(ctx, topic, snapshot)
}

// SubscribeOrderStatusLog opens a live view of one order's status history.
// Consumers re-derive the current status and timeline from the full row set
// after every merge.
func (h *Hub) SubscribeOrderStatusLog(ctx context.Context, repo orders.Repository, orderID uuid.UUID) (*Handle, error) {
	topic := Topic{
		Entity: enums.EntityOrderStatusLog,
		Match: func(event feed.Event) bool {
			var row orderScopedRow
			if err := json.Unmarshal(event.Row, &row); err != nil {
				return false
			}
			return row.OrderID == orderID
		},
	}
	snapshot := func(ctx context.Context) ([]Row, error) {
		entries, err := repo.ListStatusLog(ctx, orderID)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(entries))
		for i := range entries {
			data, err := json.Marshal(entries[i])
			if err != nil {
				return nil, err
			}
			rows = append(rows, Row{ID: strconv.FormatInt(entries[i].Seq, 10), Data: data})
		}
		return rows, nil
	}
	return h.Subscribe(ctx, topic, snapshot)
}

// SubscribeUserNotifications opens a live view of one user's notifications.
// The snapshot is the first page only; older history stays behind pagination.
func (h *Hub) SubscribeUserNotifications(ctx context.Context, repo notifications.Repository, userID uuid.UUID) (*Handle, error) {
	topic := Topic{
		Entity: enums.EntityNotifications,
		Match: func(event feed.Event) bool {
			var row userScopedRow
			if err := json.Unmarshal(event.Row, &row); err != nil {
				return false
			}
			return row.UserID == userID
		},
	}
	snapshot := func(ctx context.Context) ([]Row, error) {
		records, _, err := repo.List(ctx, notifications.ListFilter{UserID: userID})
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(records))
		for i := range records {
			data, err := json.Marshal(records[i])
			if err != nil {
				return nil, err
			}
			rows = append(rows, Row{ID: records[i].ID.String(), Data: data})
		}
		return rows, nil
	}
	return h.Subscribe(ctx, topic, snapshot)
}
