package orders

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Luksow29/classic-offset-backend/internal/notifications"
	"github.com/Luksow29/classic-offset-backend/internal/timeline"
	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
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

// Service defines the order lifecycle operations: status changes, derived
// current status, and read models.
type Service interface {
	RecordStatusChange(ctx context.Context, input RecordStatusChangeInput) (*models.OrderStatusLog, error)
	CurrentStatus(ctx context.Context, orderID uuid.UUID) (string, error)
	GetOrderView(ctx context.Context, orderID uuid.UUID) (*OrderView, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]OrderView, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	emitter    changeEmitter
	dispatcher notificationDispatcher
	logg       *logger.Logger
	now        func() time.Time
}

// RecordStatusChangeInput captures one status transition request. Status is a
// free-form label; UpdatedAt defaults to now when zero.
type RecordStatusChangeInput struct {
	OrderID   uuid.UUID
	Status    string
	UpdatedAt time.Time
}

// NewService wires the order lifecycle engine. Dispatcher may be nil; status
// changes then skip the customer notification.
func NewService(repo Repository, tx txRunner, emitter changeEmitter, dispatcher notificationDispatcher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
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

// DeriveStatus folds an ordered status log into the current display status.
// The entry with the latest UpdatedAt wins; on equal timestamps the one that
// arrived last wins, so entries must be passed in seq order. An empty log
// derives the Pending sentinel.
func DeriveStatus(entries []models.OrderStatusLog) string {
	status := enums.OrderStatusPending
	var best time.Time
	for _, entry := range entries {
		if entry.UpdatedAt.Before(best) {
			continue
		}
		best = entry.UpdatedAt
		status = entry.Status
	}
	return status
}

func (s *service) RecordStatusChange(ctx context.Context, input RecordStatusChangeInput) (*models.OrderStatusLog, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status required")
	}
	updatedAt := input.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now().UTC()
	}

	entry := &models.OrderStatusLog{
		OrderID:   input.OrderID,
		Status:    status,
		UpdatedAt: updatedAt,
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}
		order = found
		if err := repo.AppendStatusLog(ctx, entry); err != nil {
			return err
		}
		return s.emitter.Emit(ctx, tx, enums.EntityOrderStatusLog, enums.FeedOpInsert, strconv.FormatInt(entry.Seq, 10), entry)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status change")
	}

	s.notifyStatusChange(ctx, order, status)
	return entry, nil
}

// notifyStatusChange runs after the log entry committed. Notification
// failures are logged, never surfaced: the transition already happened.
func (s *service) notifyStatusChange(ctx context.Context, order *models.Order, status string) {
	if s.dispatcher == nil || order == nil {
		return
	}
	link := "/orders/" + order.ID.String()
	_, err := s.dispatcher.Dispatch(ctx, notifications.DispatchInput{
		UserID:  order.CustomerID,
		Type:    enums.NotificationTypeOrderUpdate,
		Title:   "Order update",
		Message: "Your order is now " + status,
		Link:    &link,
		Metadata: map[string]any{
			"order_id": order.ID,
			"status":   status,
		},
	})
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Warn(logCtx, "status change notification failed: "+err.Error())
	}
}

func (s *service) CurrentStatus(ctx context.Context, orderID uuid.UUID) (string, error) {
	if orderID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if _, err := s.repo.FindOrder(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	entries, err := s.repo.ListStatusLog(ctx, orderID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status log")
	}
	return DeriveStatus(entries), nil
}

func (s *service) GetOrderView(ctx context.Context, orderID uuid.UUID) (*OrderView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	entries, err := s.repo.ListStatusLog(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status log")
	}
	view := buildOrderView(order, entries)
	return &view, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID) ([]OrderView, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	rows, err := s.repo.ListCustomerOrders(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	views := make([]OrderView, 0, len(rows))
	for i := range rows {
		entries, err := s.repo.ListStatusLog(ctx, rows[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status log")
		}
		views = append(views, buildOrderView(&rows[i], entries))
	}
	return views, nil
}

func buildOrderView(order *models.Order, entries []models.OrderStatusLog) OrderView {
	return OrderView{
		ID:             order.ID,
		CustomerID:     order.CustomerID,
		Status:         DeriveStatus(entries),
		TotalAmount:    order.TotalAmount,
		AmountReceived: order.AmountReceived,
		BalanceAmount:  order.Balance(),
		DeliveryDate:   order.DeliveryDate,
		CreatedAt:      order.CreatedAt,
		Timeline:       timeline.Project(entries),
	}
}
