package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Luksow29/classic-offset-backend/api/responses"
	"github.com/Luksow29/classic-offset-backend/api/validators"
	"github.com/Luksow29/classic-offset-backend/internal/orders"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
)

// GetOrder returns the current view of one order: derived status, balance,
// and the projected timeline.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		view, err := svc.GetOrderView(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ListOrders returns a customer's orders, newest first.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("customerId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "customerId is required"))
			return
		}
		customerID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}
		views, err := svc.ListCustomerOrders(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

type recordStatusRequest struct {
	Status    string     `json:"status" validate:"required"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// RecordOrderStatus appends a status entry to the order's log. The staff
// dashboard is the only caller; statuses are free-form strings.
func RecordOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		var body recordStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := orders.RecordStatusChangeInput{
			OrderID: orderID,
			Status:  body.Status,
		}
		if body.UpdatedAt != nil {
			input.UpdatedAt = *body.UpdatedAt
		}
		entry, err := svc.RecordStatusChange(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
