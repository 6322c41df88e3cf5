package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
)

func TestProject_sortsAscending(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entries := []models.OrderStatusLog{
		{Seq: 1, Status: "Printing", UpdatedAt: base.Add(2 * time.Hour)},
		{Seq: 2, Status: "Design", UpdatedAt: base},
		{Seq: 3, Status: "Delivered", UpdatedAt: base.Add(5 * time.Hour)},
	}

	projection := Project(entries)
	require.Len(t, projection.Events, 3)
	assert.Equal(t, 0, projection.Skipped)
	assert.Equal(t, "Design", projection.Events[0].Status)
	assert.Equal(t, "Printing", projection.Events[1].Status)
	assert.Equal(t, "Delivered", projection.Events[2].Status)
}

func TestProject_skipsZeroTimestamps(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entries := []models.OrderStatusLog{
		{Seq: 1, Status: "Design", UpdatedAt: base},
		{Seq: 2, Status: "Broken"},
		{Seq: 3, Status: "Printing", UpdatedAt: base.Add(time.Hour)},
	}

	projection := Project(entries)
	require.Len(t, projection.Events, 2)
	assert.Equal(t, 1, projection.Skipped)
	assert.Equal(t, "Design", projection.Events[0].Status)
	assert.Equal(t, "Printing", projection.Events[1].Status)
}

func TestProject_equalTimestampsKeepArrivalOrder(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	entries := []models.OrderStatusLog{
		{Seq: 1, Status: "Printing", UpdatedAt: at},
		{Seq: 2, Status: "Binding", UpdatedAt: at},
	}

	projection := Project(entries)
	require.Len(t, projection.Events, 2)
	assert.Equal(t, "Printing", projection.Events[0].Status)
	assert.Equal(t, "Binding", projection.Events[1].Status)
}

func TestProject_empty(t *testing.T) {
	projection := Project(nil)
	assert.Empty(t, projection.Events)
	assert.Equal(t, 0, projection.Skipped)
}
