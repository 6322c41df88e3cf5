package realtime

import (
	"context"
	"errors"

	"github.com/sethvargo/go-retry"

	"github.com/Luksow29/classic-offset-backend/pkg/config"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/feed"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
	"github.com/Luksow29/classic-offset-backend/pkg/metrics"
)

var errHandleClosed = errors.New("subscription closed")

// SnapshotFunc fetches the full current row set for a view from the store.
// It runs at subscribe time and again after every reconnect: a dropped
// connection can only be reconciled by refetching, never by replay.
type SnapshotFunc func(ctx context.Context) ([]Row, error)

// Topic selects which feed events a subscription receives. A nil Match
// accepts every event for the entity.
type Topic struct {
	Entity enums.FeedEntity
	Match  func(event feed.Event) bool
}

// Hub fans feed events out to per-subscription workers. Each subscription
// gets one goroutine that owns its view; merges are serialized there, so rows
// never tear mid-read.
type Hub struct {
	feed    feed.Feed
	cfg     config.SyncConfig
	metrics *metrics.SyncMetrics
	logg    *logger.Logger
}

// NewHub builds a sync hub on the given feed transport.
func NewHub(f feed.Feed, cfg config.SyncConfig, m *metrics.SyncMetrics, logg *logger.Logger) (*Hub, error) {
	if f == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "feed transport required")
	}
	return &Hub{feed: f, cfg: cfg, metrics: m, logg: logg}, nil
}

// Subscribe opens a live view: subscribe to the feed first, then snapshot, so
// events raced during the snapshot are re-delivered and merged idempotently
// rather than lost. The returned handle stays live until Close or until
// reconnection is exhausted.
func (h *Hub) Subscribe(ctx context.Context, topic Topic, snapshot SnapshotFunc) (*Handle, error) {
	if snapshot == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "snapshot func required")
	}
	stream, err := h.feed.Subscribe(ctx, topic.Entity)
	if err != nil {
		return nil, err
	}
	rows, err := snapshot(ctx)
	if err != nil {
		_ = stream.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initial snapshot")
	}

	handle := newHandle(snapshot)
	handle.replace(rows)
	h.metrics.SubscriptionOpened(string(topic.Entity))
	go h.run(ctx, topic, snapshot, stream, handle)
	return handle, nil
}

func (h *Hub) run(ctx context.Context, topic Topic, snapshot SnapshotFunc, stream feed.Stream, handle *Handle) {
	defer h.metrics.SubscriptionClosed(string(topic.Entity))
	defer func() { _ = stream.Close() }()

	for {
		select {
		case <-ctx.Done():
			handle.fail(ctx.Err())
			return
		case <-handle.done:
			return
		case event, ok := <-stream.Events():
			// select picks randomly among ready cases, so a closed handle
			// can still land here with events pending.
			if handle.closed() {
				return
			}
			if !ok {
				streamErr := stream.Err()
				next, err := h.reconnect(ctx, topic, snapshot, handle)
				if err != nil {
					if h.logg != nil {
						logCtx := h.logg.WithField(ctx, "entity", topic.Entity)
						h.logg.Error(logCtx, "feed reconnection exhausted", streamErr)
					}
					handle.fail(pkgerrors.Wrap(pkgerrors.CodeTransientNetwork, err, "reconnection exhausted"))
					return
				}
				_ = stream.Close()
				stream = next
				continue
			}
			if topic.Match != nil && !topic.Match(event) {
				continue
			}
			if handle.apply(event) {
				h.metrics.IncMerged(string(topic.Entity), string(event.Op))
			}
		}
	}
}

// reconnect resubscribes with exponential backoff and reconciles the view
// with a full snapshot before handing the new stream back.
func (h *Hub) reconnect(ctx context.Context, topic Topic, snapshot SnapshotFunc, handle *Handle) (feed.Stream, error) {
	backoff := retry.NewExponential(h.cfg.ReconnectBaseDelay)
	if h.cfg.ReconnectMaxDelay > 0 {
		backoff = retry.WithCappedDuration(h.cfg.ReconnectMaxDelay, backoff)
	}
	backoff = retry.WithMaxRetries(h.cfg.ReconnectMaxRetries, backoff)

	var stream feed.Stream
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if handle.closed() {
			return errHandleClosed
		}
		next, err := h.feed.Subscribe(ctx, topic.Entity)
		if err != nil {
			return retry.RetryableError(err)
		}
		rows, err := snapshot(ctx)
		if err != nil {
			_ = next.Close()
			return retry.RetryableError(err)
		}
		handle.replace(rows)
		stream = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	h.metrics.IncReconnect(string(topic.Entity))
	if h.logg != nil {
		logCtx := h.logg.WithField(ctx, "entity", topic.Entity)
		h.logg.Info(logCtx, "feed subscription reestablished")
	}
	return stream, nil
}
