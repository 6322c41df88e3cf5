package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Luksow29/classic-offset-backend/api/responses"
	"github.com/Luksow29/classic-offset-backend/api/validators"
	"github.com/Luksow29/classic-offset-backend/internal/requests"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
)

type createRequestBody struct {
	CustomerID uuid.UUID       `json:"customerId" validate:"required"`
	Data       json.RawMessage `json:"data" validate:"required"`
}

// CreateRequest accepts a customer's order request payload.
func CreateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.CreateRequest(r.Context(), requests.CreateRequestInput{
			CustomerID: body.CustomerID,
			Payload:    body.Data,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// GetRequest returns one request with its computed pricing summary.
func GetRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}
		view, err := svc.GetRequestView(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type quoteChargeBody struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=percentage fixed custom"`
}

type sendQuoteBody struct {
	Charges    []quoteChargeBody `json:"charges" validate:"dive"`
	AdminTotal *decimal.Decimal  `json:"adminTotal,omitempty"`
}

// SendQuote moves a pending request to quoted with itemized charges and an
// optional admin override total.
func SendQuote(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}
		var body sendQuoteBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := requests.SendQuoteInput{
			RequestID:  requestID,
			AdminTotal: body.AdminTotal,
		}
		for _, charge := range body.Charges {
			input.Charges = append(input.Charges, requests.ChargeInput{
				Description: charge.Description,
				Amount:      charge.Amount,
				Type:        enums.ServiceChargeType(charge.Type),
			})
		}
		view, err := svc.SendQuote(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type respondBody struct {
	Decision string  `json:"decision" validate:"required,oneof=accept reject"`
	Reason   *string `json:"reason,omitempty"`
}

// RespondToQuote records the customer's accept or reject decision.
func RespondToQuote(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}
		var body respondBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.RespondToQuote(r.Context(), requests.RespondInput{
			RequestID: requestID,
			Decision:  requests.QuoteDecision(body.Decision),
			Reason:    body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
