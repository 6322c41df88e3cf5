package requests

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Luksow29/classic-offset-backend/internal/notifications"
	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
	"github.com/Luksow29/classic-offset-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type changeEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, entity enums.FeedEntity, op enums.FeedOp, rowID string, row any) error
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, input notifications.DispatchInput) (*models.Notification, error)
}

// Service defines the quote negotiation operations on order requests.
type Service interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (*RequestView, error)
	SendQuote(ctx context.Context, input SendQuoteInput) (*RequestView, error)
	RespondToQuote(ctx context.Context, input RespondInput) (*RequestView, error)
	GetRequestView(ctx context.Context, requestID uuid.UUID) (*RequestView, error)
	ListCustomerRequests(ctx context.Context, customerID uuid.UUID) ([]RequestView, error)
}

// QuoteDecision is the customer's answer to a quote.
type QuoteDecision string

const (
	QuoteDecisionAccept QuoteDecision = "accept"
	QuoteDecisionReject QuoteDecision = "reject"
)

// CreateRequestInput carries a new request. Payload is the loose JSON body
// submitted by the customer app.
type CreateRequestInput struct {
	CustomerID uuid.UUID
	Payload    json.RawMessage
}

// ChargeInput is one itemized addition on an outgoing quote.
type ChargeInput struct {
	Description string
	Amount      decimal.Decimal
	Type        enums.ServiceChargeType
}

// SendQuoteInput carries an admin's quote for a pending request.
type SendQuoteInput struct {
	RequestID  uuid.UUID
	Charges    []ChargeInput
	AdminTotal *decimal.Decimal
}

// RespondInput carries the customer's decision on a quoted request.
type RespondInput struct {
	RequestID uuid.UUID
	Decision  QuoteDecision
	Reason    *string
}

type service struct {
	repo       Repository
	tx         txRunner
	emitter    changeEmitter
	dispatcher notificationDispatcher
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the quote negotiation engine. Dispatcher may be nil; quote
// transitions then skip the customer notification.
func NewService(repo Repository, tx txRunner, emitter changeEmitter, dispatcher notificationDispatcher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "requests repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "change emitter required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		emitter:    emitter,
		dispatcher: dispatcher,
		logg:       logg,
		now:        time.Now,
	}, nil
}

func (s *service) CreateRequest(ctx context.Context, input CreateRequestInput) (*RequestView, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	data, err := types.ParseRequestData(input.Payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request payload")
	}

	request := &models.OrderRequest{
		ID:            uuid.New(),
		CustomerID:    input.CustomerID,
		RequestData:   data,
		Status:        enums.RequestStatusPending,
		PricingStatus: enums.PricingStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return err
		}
		return s.emitter.Emit(ctx, tx, enums.EntityOrderRequests, enums.FeedOpInsert, request.ID.String(), request)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order request")
	}
	view := buildRequestView(request)
	return &view, nil
}

func (s *service) SendQuote(ctx context.Context, input SendQuoteInput) (*RequestView, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	now := s.now().UTC()
	charges := make(types.ServiceCharges, 0, len(input.Charges))
	for _, charge := range input.Charges {
		description := strings.TrimSpace(charge.Description)
		if description == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge description required")
		}
		if !charge.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid charge type")
		}
		if charge.Amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount cannot be negative")
		}
		charges = append(charges, types.ServiceCharge{
			ID:          uuid.New(),
			Description: description,
			Amount:      charge.Amount,
			Type:        charge.Type,
			AddedAt:     now,
		})
	}
	if input.AdminTotal != nil && input.AdminTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin total cannot be negative")
	}

	var updated *models.OrderRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, err := repo.MarkQuoted(ctx, markQuotedParams{
			RequestID:      input.RequestID,
			ServiceCharges: charges,
			AdminTotal:     input.AdminTotal,
			SentAt:         now,
		})
		if err != nil {
			return err
		}
		if !won {
			return s.transitionConflict(ctx, repo, input.RequestID, "quote already sent or request closed")
		}
		fresh, err := repo.Find(ctx, input.RequestID)
		if err != nil {
			return err
		}
		updated = fresh
		return s.emitter.Emit(ctx, tx, enums.EntityOrderRequests, enums.FeedOpUpdate, fresh.ID.String(), fresh)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send quote")
	}

	s.notifyQuote(ctx, updated, enums.NotificationTypeQuoteSent, "Quote ready",
		"A quote is ready for your "+updated.RequestData.OrderType+" request")
	view := buildRequestView(updated)
	return &view, nil
}

func (s *service) RespondToQuote(ctx context.Context, input RespondInput) (*RequestView, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	params := markRespondedParams{
		RequestID:   input.RequestID,
		RespondedAt: s.now().UTC(),
	}
	switch input.Decision {
	case QuoteDecisionAccept:
		params.PricingStatus = enums.PricingStatusAccepted
		params.Status = enums.RequestStatusAccepted
	case QuoteDecisionReject:
		params.PricingStatus = enums.PricingStatusRejected
		params.Status = enums.RequestStatusRejected
		params.RejectionReason = input.Reason
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be accept or reject")
	}

	var updated *models.OrderRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, err := repo.MarkResponded(ctx, params)
		if err != nil {
			return err
		}
		if !won {
			return s.transitionConflict(ctx, repo, input.RequestID, "quote is no longer open for a response")
		}
		fresh, err := repo.Find(ctx, input.RequestID)
		if err != nil {
			return err
		}
		updated = fresh
		return s.emitter.Emit(ctx, tx, enums.EntityOrderRequests, enums.FeedOpUpdate, fresh.ID.String(), fresh)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "respond to quote")
	}

	title := "Quote accepted"
	message := "You accepted the quote for your " + updated.RequestData.OrderType + " request"
	if input.Decision == QuoteDecisionReject {
		title = "Quote declined"
		message = "You declined the quote for your " + updated.RequestData.OrderType + " request"
	}
	s.notifyQuote(ctx, updated, enums.NotificationTypeQuoteResponse, title, message)
	view := buildRequestView(updated)
	return &view, nil
}

// transitionConflict explains a lost conditional update: the row either never
// existed or its pricing_status moved on first. Both are loud failures.
func (s *service) transitionConflict(ctx context.Context, repo Repository, requestID uuid.UUID, reason string) error {
	current, err := repo.Find(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order request not found")
		}
		return err
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, reason).
		WithDetails(map[string]any{"pricing_status": current.PricingStatus})
}

func (s *service) notifyQuote(ctx context.Context, request *models.OrderRequest, notificationType enums.NotificationType, title, message string) {
	if s.dispatcher == nil || request == nil {
		return
	}
	link := "/requests/" + request.ID.String()
	_, err := s.dispatcher.Dispatch(ctx, notifications.DispatchInput{
		UserID:  request.CustomerID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Link:    &link,
		Metadata: map[string]any{
			"request_id":     request.ID,
			"pricing_status": request.PricingStatus,
		},
	})
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithRequestRecordID(ctx, request.ID.String())
		s.logg.Warn(logCtx, "quote notification failed: "+err.Error())
	}
}

func (s *service) GetRequestView(ctx context.Context, requestID uuid.UUID) (*RequestView, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.Find(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order request")
	}
	view := buildRequestView(request)
	return &view, nil
}

func (s *service) ListCustomerRequests(ctx context.Context, customerID uuid.UUID) ([]RequestView, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	rows, err := s.repo.ListCustomerRequests(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order requests")
	}
	views := make([]RequestView, 0, len(rows))
	for i := range rows {
		views = append(views, buildRequestView(&rows[i]))
	}
	return views, nil
}

func buildRequestView(request *models.OrderRequest) RequestView {
	return RequestView{
		ID:              request.ID,
		CustomerID:      request.CustomerID,
		RequestData:     request.RequestData,
		Status:          request.Status,
		PricingStatus:   request.PricingStatus,
		ServiceCharges:  request.ServiceCharges,
		Pricing:         SummarizePricing(request),
		QuoteSentAt:     request.QuoteSentAt,
		QuoteResponseAt: request.QuoteResponseAt,
		RejectionReason: request.RejectionReason,
		CreatedAt:       request.CreatedAt,
	}
}
