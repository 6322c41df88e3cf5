package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Luksow29/classic-offset-backend/internal/orders"
	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/feed"
)

type fakeOrdersRepo struct {
	orders  []models.Order
	entries []models.OrderStatusLog
}

func (r *fakeOrdersRepo) WithTx(tx *gorm.DB) orders.Repository {
	return r
}

func (r *fakeOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	return order, nil
}

func (r *fakeOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	for i := range r.orders {
		if r.orders[i].ID == orderID {
			return &r.orders[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrdersRepo) ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (r *fakeOrdersRepo) AppendStatusLog(ctx context.Context, entry *models.OrderStatusLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeOrdersRepo) ListStatusLog(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusLog, error) {
	var out []models.OrderStatusLog
	for _, entry := range r.entries {
		if entry.OrderID == orderID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func TestSubscribeCustomerOrdersFiltersByCustomer(t *testing.T) {
	customerID := uuid.New()
	otherCustomer := uuid.New()
	mine := models.Order{ID: uuid.New(), CustomerID: customerID}
	repo := &fakeOrdersRepo{orders: []models.Order{
		mine,
		{ID: uuid.New(), CustomerID: otherCustomer},
	}}

	f := feed.NewMemoryFeed(8)
	defer f.Close()
	hub := newTestHub(t, f)

	handle, err := hub.SubscribeCustomerOrders(context.Background(), repo, customerID)
	require.NoError(t, err)
	defer handle.Close()

	rows := handle.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, mine.ID.String(), rows[0].ID)

	theirs := models.Order{ID: uuid.New(), CustomerID: otherCustomer}
	publishRow(t, f, enums.EntityOrders, theirs.ID.String(), theirs)

	newOrder := models.Order{ID: uuid.New(), CustomerID: customerID}
	publishRow(t, f, enums.EntityOrders, newOrder.ID.String(), newOrder)

	rows = waitForRows(t, handle, func(rows []Row) bool { return len(rows) == 2 })
	require.Equal(t, newOrder.ID.String(), rows[1].ID)
}

func TestSubscribeOrderStatusLogMergesNewEntries(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeOrdersRepo{entries: []models.OrderStatusLog{
		{Seq: 1, OrderID: orderID, Status: "Pending", UpdatedAt: time.Now().Add(-time.Hour)},
	}}

	f := feed.NewMemoryFeed(8)
	defer f.Close()
	hub := newTestHub(t, f)

	handle, err := hub.SubscribeOrderStatusLog(context.Background(), repo, orderID)
	require.NoError(t, err)
	defer handle.Close()

	require.Len(t, handle.Rows(), 1)

	entry := models.OrderStatusLog{Seq: 2, OrderID: orderID, Status: "Printing", UpdatedAt: time.Now()}
	publishRow(t, f, enums.EntityOrderStatusLog, "2", entry)

	foreign := models.OrderStatusLog{Seq: 9, OrderID: uuid.New(), Status: "Delivered", UpdatedAt: time.Now()}
	publishRow(t, f, enums.EntityOrderStatusLog, "9", foreign)

	rows := waitForRows(t, handle, func(rows []Row) bool { return len(rows) == 2 })
	require.Equal(t, "2", rows[1].ID)
}

func publishRow(t *testing.T, f *feed.MemoryFeed, entity enums.FeedEntity, rowID string, row any) {
	t.Helper()
	data, err := json.Marshal(row)
	require.NoError(t, err)
	require.NoError(t, f.Publish(context.Background(), feed.Event{
		Entity: entity,
		Op:     enums.FeedOpInsert,
		RowID:  rowID,
		Row:    data,
	}))
}
