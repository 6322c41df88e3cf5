package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
	"github.com/Luksow29/classic-offset-backend/pkg/metrics"
	"github.com/Luksow29/classic-offset-backend/pkg/pagination"
	"github.com/Luksow29/classic-offset-backend/pkg/push"
	"github.com/Luksow29/classic-offset-backend/pkg/types"
)

const pushSendTimeout = 15 * time.Second

// Service fans user-facing events out to delivery channels. The in-app row is
// the source of truth and always lands; push is best-effort on top of it.
type Service interface {
	Dispatch(ctx context.Context, input DispatchInput) (*models.Notification, error)
	DispatchBulk(ctx context.Context, userIDs []uuid.UUID, input DispatchInput) (BulkResult, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	SetPreference(ctx context.Context, input PreferenceInput) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type changeEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, entity enums.FeedEntity, op enums.FeedOp, rowID string, row any) error
}

type pushSender interface {
	Send(ctx context.Context, msg push.Message) error
}

// DispatchInput describes one notification to deliver.
type DispatchInput struct {
	UserID   uuid.UUID
	Type     enums.NotificationType
	Title    string
	Message  string
	Link     *string
	Metadata map[string]any
}

// BulkResult summarizes a bulk dispatch: failures never abort the batch.
type BulkResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// PreferenceInput sets the channel configuration for one notification type.
type PreferenceInput struct {
	UserID          uuid.UUID
	Type            enums.NotificationType
	Channels        []enums.NotificationChannel
	Enabled         bool
	QuietHoursStart *string
	QuietHoursEnd   *string
}

type service struct {
	tx      txRunner
	repo    Repository
	emitter changeEmitter
	pusher  pushSender
	metrics *metrics.DispatcherMetrics
	logg    *logger.Logger
	now     func() time.Time

	pushWG sync.WaitGroup
}

// NewService wires the dispatcher. Pusher may be nil when push delivery is
// not configured; every push attempt is then skipped.
func NewService(tx txRunner, repo Repository, emitter changeEmitter, pusher pushSender, m *metrics.DispatcherMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "change emitter required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		emitter: emitter,
		pusher:  pusher,
		metrics: m,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Dispatch(ctx context.Context, input DispatchInput) (*models.Notification, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification type required")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title required")
	}

	var metadata json.RawMessage
	if len(input.Metadata) > 0 {
		encoded, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode notification metadata")
		}
		metadata = encoded
	}

	notification := &models.Notification{
		ID:       uuid.New(),
		UserID:   input.UserID,
		Type:     input.Type,
		Title:    input.Title,
		Message:  input.Message,
		Link:     input.Link,
		Metadata: metadata,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, notification); err != nil {
			return err
		}
		return s.emitter.Emit(ctx, tx, enums.EntityNotifications, enums.FeedOpInsert, notification.ID.String(), notification)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
	}
	s.metrics.IncDispatched(string(input.Type))

	s.maybePush(ctx, notification)
	return notification, nil
}

// maybePush starts a best-effort push delivery. Any failure past this point
// is logged and counted, never returned: the in-app row is already committed.
func (s *service) maybePush(ctx context.Context, notification *models.Notification) {
	if s.pusher == nil {
		s.metrics.IncPushSkipped("disabled")
		return
	}

	pref, err := s.repo.FindPreference(ctx, notification.UserID, notification.Type)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		if s.logg != nil {
			logCtx := s.withNotificationFields(ctx, notification)
			s.logg.Warn(logCtx, "load notification preference: "+err.Error())
		}
		s.metrics.IncPushSkipped("disabled")
		return
	}

	channels := types.DefaultChannels()
	var quietStart, quietEnd *string
	if pref != nil {
		if !pref.Enabled {
			s.metrics.IncPushSkipped("disabled")
			return
		}
		if len(pref.Channels) > 0 {
			channels = pref.Channels
		}
		quietStart, quietEnd = pref.QuietHoursStart, pref.QuietHoursEnd
	}
	if !channels.Has(enums.ChannelPush) {
		s.metrics.IncPushSkipped("disabled")
		return
	}
	if withinQuietHours(quietStart, quietEnd, s.now()) {
		s.metrics.IncPushSkipped("quiet_hours")
		return
	}

	subs, err := s.repo.ListPushSubscriptions(ctx, notification.UserID)
	if err != nil {
		if s.logg != nil {
			logCtx := s.withNotificationFields(ctx, notification)
			s.logg.Warn(logCtx, "load push subscriptions: "+err.Error())
		}
		s.metrics.IncPushSkipped("no_subscription")
		return
	}
	if len(subs) == 0 {
		s.metrics.IncPushSkipped("no_subscription")
		return
	}

	msg := push.Message{
		UserID:   notification.UserID,
		Title:    notification.Title,
		Body:     notification.Message,
		Category: notification.Type.Category(),
		Data: push.MessageData{
			NotificationID: notification.ID,
		},
	}
	if notification.Link != nil {
		msg.Data.URL = *notification.Link
	}

	// The delivery outlives the request: detach from the caller's cancel but
	// keep its log fields.
	sendCtx := context.WithoutCancel(ctx)
	s.pushWG.Add(1)
	go func() {
		defer s.pushWG.Done()
		sendCtx, cancel := context.WithTimeout(sendCtx, pushSendTimeout)
		defer cancel()
		if err := s.pusher.Send(sendCtx, msg); err != nil {
			if s.logg != nil {
				logCtx := s.withNotificationFields(sendCtx, notification)
				s.logg.Warn(logCtx, "push delivery failed: "+err.Error())
			}
			s.metrics.IncPushFailed(string(notification.Type))
		}
	}()
}

func (s *service) withNotificationFields(ctx context.Context, notification *models.Notification) context.Context {
	if s.logg == nil {
		return ctx
	}
	return s.logg.WithFields(ctx, map[string]any{
		"notification_id": notification.ID,
		"user_id":         notification.UserID,
		"type":            notification.Type,
	})
}

// DispatchBulk delivers the same event to many users. It is not
// transactional: one user's failure never rolls back another's row.
func (s *service) DispatchBulk(ctx context.Context, userIDs []uuid.UUID, input DispatchInput) (BulkResult, error) {
	var result BulkResult
	var errs error
	for _, userID := range userIDs {
		target := input
		target.UserID = userID
		if _, err := s.Dispatch(ctx, target); err != nil {
			result.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		result.Sent++
	}
	return result, errs
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := ListFilter{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) SetPreference(ctx context.Context, input PreferenceInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification type required")
	}
	for _, channel := range input.Channels {
		if !channel.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid channel").WithDetails(string(channel))
		}
	}
	if input.QuietHoursStart != nil {
		if _, err := parseClock(*input.QuietHoursStart); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quiet hours start")
		}
	}
	if input.QuietHoursEnd != nil {
		if _, err := parseClock(*input.QuietHoursEnd); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quiet hours end")
		}
	}

	pref := &models.NotificationPreference{
		UserID:          input.UserID,
		Type:            input.Type,
		Channels:        types.Channels(input.Channels),
		Enabled:         input.Enabled,
		QuietHoursStart: input.QuietHoursStart,
		QuietHoursEnd:   input.QuietHoursEnd,
	}
	if err := s.repo.UpsertPreference(ctx, pref); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notification preference")
	}
	return nil
}
