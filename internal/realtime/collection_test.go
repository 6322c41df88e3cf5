package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/feed"
)

func event(op enums.FeedOp, id, payload string) feed.Event {
	return feed.Event{
		Entity: enums.EntityOrders,
		Op:     op,
		RowID:  id,
		Row:    json.RawMessage(payload),
	}
}

func TestCollectionApply(t *testing.T) {
	t.Run("insert of known id replaces in place", func(t *testing.T) {
		c := newCollection()
		require.True(t, c.apply(event(enums.FeedOpInsert, "a", `{"v":1}`)))
		require.True(t, c.apply(event(enums.FeedOpInsert, "b", `{"v":2}`)))
		require.True(t, c.apply(event(enums.FeedOpInsert, "a", `{"v":3}`)))

		rows := c.snapshot()
		require.Len(t, rows, 2)
		assert.Equal(t, "a", rows[0].ID)
		assert.JSONEq(t, `{"v":3}`, string(rows[0].Data))
	})

	t.Run("update of unknown id behaves as insert", func(t *testing.T) {
		c := newCollection()
		require.True(t, c.apply(event(enums.FeedOpUpdate, "a", `{"v":1}`)))

		rows := c.snapshot()
		require.Len(t, rows, 1)
		assert.Equal(t, "a", rows[0].ID)
	})

	t.Run("delete of unknown id is a no-op", func(t *testing.T) {
		c := newCollection()
		assert.False(t, c.apply(event(enums.FeedOpDelete, "ghost", "")))
	})

	t.Run("delete removes the row and its position", func(t *testing.T) {
		c := newCollection()
		c.apply(event(enums.FeedOpInsert, "a", `{}`))
		c.apply(event(enums.FeedOpInsert, "b", `{}`))
		require.True(t, c.apply(event(enums.FeedOpDelete, "a", "")))

		rows := c.snapshot()
		require.Len(t, rows, 1)
		assert.Equal(t, "b", rows[0].ID)
	})
}

func TestCollectionReplace(t *testing.T) {
	c := newCollection()
	c.apply(event(enums.FeedOpInsert, "stale", `{}`))

	c.replace([]Row{
		{ID: "x", Data: json.RawMessage(`{"v":1}`)},
		{ID: "y", Data: json.RawMessage(`{"v":2}`)},
	})

	rows := c.snapshot()
	require.Len(t, rows, 2)
	assert.Equal(t, "x", rows[0].ID)
	assert.Equal(t, "y", rows[1].ID)
}
