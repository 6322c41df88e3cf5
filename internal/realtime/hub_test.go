package realtime

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luksow29/classic-offset-backend/pkg/config"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/feed"
	"github.com/Luksow29/classic-offset-backend/pkg/metrics"
)

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		ReconnectMaxRetries: 3,
		ReconnectBaseDelay:  time.Millisecond,
		ReconnectMaxDelay:   10 * time.Millisecond,
	}
}

func newTestHub(t *testing.T, f feed.Feed) *Hub {
	t.Helper()
	hub, err := NewHub(f, testSyncConfig(), metrics.NewSyncMetrics(nil), nil)
	require.NoError(t, err)
	return hub
}

func staticSnapshot(rows ...Row) SnapshotFunc {
	return func(ctx context.Context) ([]Row, error) {
		return rows, nil
	}
}

// waitForRow polls the handle until the predicate holds or the deadline hits.
func waitForRows(t *testing.T, handle *Handle, predicate func([]Row) bool) []Row {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		rows := handle.Rows()
		if predicate(rows) {
			return rows
		}
		select {
		case <-handle.Updates():
		case <-handle.Done():
			t.Fatalf("subscription ended while waiting: %v", handle.Err())
		case <-deadline:
			t.Fatalf("timed out waiting for rows, have %d", len(rows))
		}
	}
}

func TestHubSubscribe_snapshotThenMerge(t *testing.T) {
	f := feed.NewMemoryFeed(16)
	defer f.Close()
	hub := newTestHub(t, f)

	handle, err := hub.Subscribe(context.Background(), Topic{Entity: enums.EntityOrders},
		staticSnapshot(Row{ID: "a", Data: json.RawMessage(`{"v":1}`)}))
	require.NoError(t, err)
	defer handle.Close()

	rows := handle.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ID)

	require.NoError(t, f.Publish(context.Background(), feed.Event{
		Entity: enums.EntityOrders,
		Op:     enums.FeedOpInsert,
		RowID:  "b",
		Row:    json.RawMessage(`{"v":2}`),
	}))

	rows = waitForRows(t, handle, func(rows []Row) bool { return len(rows) == 2 })
	assert.Equal(t, "b", rows[1].ID)
}

func TestHubSubscribe_matchFilters(t *testing.T) {
	f := feed.NewMemoryFeed(16)
	defer f.Close()
	hub := newTestHub(t, f)

	topic := Topic{
		Entity: enums.EntityOrders,
		Match: func(event feed.Event) bool {
			return event.RowID == "mine"
		},
	}
	handle, err := hub.Subscribe(context.Background(), topic, staticSnapshot())
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, f.Publish(context.Background(), feed.Event{
		Entity: enums.EntityOrders, Op: enums.FeedOpInsert, RowID: "other", Row: json.RawMessage(`{}`),
	}))
	require.NoError(t, f.Publish(context.Background(), feed.Event{
		Entity: enums.EntityOrders, Op: enums.FeedOpInsert, RowID: "mine", Row: json.RawMessage(`{}`),
	}))

	rows := waitForRows(t, handle, func(rows []Row) bool { return len(rows) == 1 })
	assert.Equal(t, "mine", rows[0].ID)
}

func TestHubSubscribe_snapshotFailure(t *testing.T) {
	f := feed.NewMemoryFeed(16)
	defer f.Close()
	hub := newTestHub(t, f)

	_, err := hub.Subscribe(context.Background(), Topic{Entity: enums.EntityOrders},
		func(ctx context.Context) ([]Row, error) {
			return nil, assert.AnError
		})
	require.Error(t, err)
}

func TestHubReconnect_reconcilesWithSnapshot(t *testing.T) {
	f := feed.NewMemoryFeed(16)
	defer f.Close()
	hub := newTestHub(t, f)

	var snapshots atomic.Int64
	snapshot := func(ctx context.Context) ([]Row, error) {
		n := snapshots.Add(1)
		if n == 1 {
			return []Row{{ID: "before", Data: json.RawMessage(`{}`)}}, nil
		}
		return []Row{{ID: "after", Data: json.RawMessage(`{}`)}}, nil
	}

	handle, err := hub.Subscribe(context.Background(), Topic{Entity: enums.EntityOrders}, snapshot)
	require.NoError(t, err)
	defer handle.Close()

	require.Len(t, handle.Rows(), 1)
	require.Equal(t, "before", handle.Rows()[0].ID)

	f.Disconnect(enums.EntityOrders)

	rows := waitForRows(t, handle, func(rows []Row) bool {
		return len(rows) == 1 && rows[0].ID == "after"
	})
	assert.Equal(t, "after", rows[0].ID)

	// The reestablished stream keeps delivering.
	require.NoError(t, f.Publish(context.Background(), feed.Event{
		Entity: enums.EntityOrders, Op: enums.FeedOpInsert, RowID: "fresh", Row: json.RawMessage(`{}`),
	}))
	waitForRows(t, handle, func(rows []Row) bool { return len(rows) == 2 })
}

func TestHubReconnect_exhaustionFailsHandle(t *testing.T) {
	f := feed.NewMemoryFeed(16)
	hub := newTestHub(t, f)

	handle, err := hub.Subscribe(context.Background(), Topic{Entity: enums.EntityOrders}, staticSnapshot())
	require.NoError(t, err)

	// Closing the feed makes every resubscribe attempt fail.
	require.NoError(t, f.Close())

	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("handle never terminated")
	}
	assert.Error(t, handle.Err())
}

func TestHandleClose_idempotent(t *testing.T) {
	f := feed.NewMemoryFeed(16)
	defer f.Close()
	hub := newTestHub(t, f)

	handle, err := hub.Subscribe(context.Background(), Topic{Entity: enums.EntityOrders}, staticSnapshot())
	require.NoError(t, err)

	require.NoError(t, handle.Close())
	require.NoError(t, handle.Close())

	select {
	case <-handle.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
	assert.NoError(t, handle.Err())
}

func TestHandleRefresh(t *testing.T) {
	f := feed.NewMemoryFeed(16)
	defer f.Close()
	hub := newTestHub(t, f)

	var snapshots atomic.Int64
	snapshot := func(ctx context.Context) ([]Row, error) {
		if snapshots.Add(1) == 1 {
			return nil, nil
		}
		return []Row{{ID: "fresh", Data: json.RawMessage(`{}`)}}, nil
	}

	handle, err := hub.Subscribe(context.Background(), Topic{Entity: enums.EntityOrders}, snapshot)
	require.NoError(t, err)
	defer handle.Close()

	require.Empty(t, handle.Rows())
	require.NoError(t, handle.Refresh(context.Background()))
	rows := handle.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "fresh", rows[0].ID)
}

func TestHandleClose_freezesViewWithEventsPending(t *testing.T) {
	f := feed.NewMemoryFeed(1024)
	defer f.Close()
	hub := newTestHub(t, f)

	// Publishing during the snapshot buffers the events on the stream before
	// the worker starts draining, so most of them are still pending at Close.
	snapshot := func(ctx context.Context) ([]Row, error) {
		for i := 0; i < 500; i++ {
			err := f.Publish(ctx, feed.Event{
				Entity: enums.EntityOrders,
				Op:     enums.FeedOpInsert,
				RowID:  strconv.Itoa(i),
				Row:    json.RawMessage(`{}`),
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	handle, err := hub.Subscribe(context.Background(), Topic{Entity: enums.EntityOrders}, snapshot)
	require.NoError(t, err)

	require.NoError(t, handle.Close())
	frozen := len(handle.Rows())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozen, len(handle.Rows()), "view changed after Close")
}

func TestHandleRefresh_rejectedAfterClose(t *testing.T) {
	f := feed.NewMemoryFeed(16)
	defer f.Close()
	hub := newTestHub(t, f)

	var snapshots atomic.Int64
	snapshot := func(ctx context.Context) ([]Row, error) {
		snapshots.Add(1)
		return []Row{{ID: "a", Data: json.RawMessage(`{}`)}}, nil
	}

	handle, err := hub.Subscribe(context.Background(), Topic{Entity: enums.EntityOrders}, snapshot)
	require.NoError(t, err)
	require.NoError(t, handle.Close())

	require.Error(t, handle.Refresh(context.Background()))
	assert.Equal(t, int64(1), snapshots.Load(), "refetch ran after Close")

	rows := handle.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ID)
}
