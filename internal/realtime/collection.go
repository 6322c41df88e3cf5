package realtime

import (
	"encoding/json"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/feed"
)

// Row is one entity row held in a synced view: its feed identity plus the
// raw JSON the feed delivered for it.
type Row struct {
	ID   string
	Data json.RawMessage
}

// collection is an ordered, id-keyed row set. It is not safe for concurrent
// use; the owning handle serializes access.
type collection struct {
	order []string
	rows  map[string]json.RawMessage
}

func newCollection() *collection {
	return &collection{rows: make(map[string]json.RawMessage)}
}

// apply merges one feed event, reporting whether the view changed. The feed
// carries no versions, so merges are last-delivered-wins:
//   - insert of a known id replaces the row in place instead of duplicating
//   - update of an unknown id is treated as an insert
//   - delete of an unknown id is a no-op
func (c *collection) apply(event feed.Event) bool {
	switch event.Op {
	case enums.FeedOpInsert, enums.FeedOpUpdate:
		if _, ok := c.rows[event.RowID]; !ok {
			c.order = append(c.order, event.RowID)
		}
		c.rows[event.RowID] = event.Row
		return true
	case enums.FeedOpDelete:
		if _, ok := c.rows[event.RowID]; !ok {
			return false
		}
		delete(c.rows, event.RowID)
		for i, id := range c.order {
			if id == event.RowID {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
		return true
	}
	return false
}

// replace swaps the whole view for a fresh snapshot.
func (c *collection) replace(rows []Row) {
	c.order = c.order[:0]
	c.rows = make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		if _, ok := c.rows[row.ID]; !ok {
			c.order = append(c.order, row.ID)
		}
		c.rows[row.ID] = row.Data
	}
}

// snapshot returns the rows in order.
func (c *collection) snapshot() []Row {
	out := make([]Row, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, Row{ID: id, Data: c.rows[id]})
	}
	return out
}
