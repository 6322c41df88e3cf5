package timeline

import (
	"sort"
	"time"

	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
)

// Event is one status-log entry rendered as visible order history.
type Event struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// Projection is the display-ready, chronologically ascending activity view
// for one order. It is recomputed from the raw log on every refresh, never
// streamed incrementally.
type Projection struct {
	Events []Event `json:"events"`
	// Skipped counts log rows excluded because their timestamp was missing.
	Skipped int `json:"skipped,omitempty"`
}

// Project turns raw, unordered status-log rows into a Projection. Rows with a
// zero timestamp are excluded and counted rather than failing the projection.
// Rows with equal timestamps keep their arrival order.
func Project(entries []models.OrderStatusLog) Projection {
	projection := Projection{Events: make([]Event, 0, len(entries))}
	for _, entry := range entries {
		if entry.UpdatedAt.IsZero() {
			projection.Skipped++
			continue
		}
		projection.Events = append(projection.Events, Event{
			Status: entry.Status,
			At:     entry.UpdatedAt,
		})
	}
	sort.SliceStable(projection.Events, func(i, j int) bool {
		return projection.Events[i].At.Before(projection.Events[j].At)
	})
	return projection
}
