package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Luksow29/classic-offset-backend/api/responses"
	"github.com/Luksow29/classic-offset-backend/internal/orders"
	"github.com/Luksow29/classic-offset-backend/internal/realtime"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
)

// StreamOrderStatus serves the order's status log over server-sent events.
// Each message is the full current row set: the hub reconciles on reconnect
// by replacing the view, so deltas would lie after a gap.
func StreamOrderStatus(hub *realtime.Hub, repo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		handle, err := hub.SubscribeOrderStatusLog(r.Context(), repo, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer func() { _ = handle.Close() }()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		writeRows := func() bool {
			payload, err := json.Marshal(rowData(handle.Rows()))
			if err != nil {
				return false
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}

		if !writeRows() {
			return
		}
		for {
			select {
			case <-r.Context().Done():
				return
			case <-handle.Done():
				return
			case <-handle.Updates():
				if !writeRows() {
					return
				}
			}
		}
	}
}

func rowData(rows []realtime.Row) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Data)
	}
	return out
}
