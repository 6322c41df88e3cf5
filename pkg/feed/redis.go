package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Luksow29/classic-offset-backend/pkg/config"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
	redisclient "github.com/Luksow29/classic-offset-backend/pkg/redis"
)

// RedisFeed carries change events over Redis pub/sub, one channel per entity.
// Pub/sub has no replay: events published while a subscriber is down are lost,
// which is why consumers reconcile with a full refetch after reconnecting.
type RedisFeed struct {
	client *redisclient.Client
	cfg    config.FeedConfig
	logg   *logger.Logger
}

// NewRedisFeed wires the Redis-backed feed transport.
func NewRedisFeed(client *redisclient.Client, cfg config.FeedConfig, logg *logger.Logger) (*RedisFeed, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if cfg.ChannelPrefix == "" {
		return nil, fmt.Errorf("feed channel prefix required")
	}
	return &RedisFeed{client: client, cfg: cfg, logg: logg}, nil
}

// Publish encodes the event and sends it on the entity's channel.
func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode feed event")
	}
	if err := f.client.Publish(ctx, f.channel(event.Entity), payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransientNetwork, err, "publish feed event")
	}
	return nil
}

// Subscribe opens a pub/sub stream for the entity. The connect timeout bounds
// the initial handshake; after that the stream lives until closed or the
// connection drops.
func (f *RedisFeed) Subscribe(ctx context.Context, entity enums.FeedEntity) (Stream, error) {
	connectCtx := ctx
	if f.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, f.cfg.ConnectTimeout)
		defer cancel()
	}

	sub, err := f.client.Subscribe(connectCtx, f.channel(entity))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransientNetwork, err, "feed subscribe")
	}

	stream := &redisStream{
		sub:  sub,
		ch:   make(chan Event, f.bufferSize()),
		done: make(chan struct{}),
	}
	go stream.pump(f.logg)
	return stream, nil
}

func (f *RedisFeed) channel(entity enums.FeedEntity) string {
	return fmt.Sprintf("%s:%s", f.cfg.ChannelPrefix, entity)
}

func (f *RedisFeed) bufferSize() int {
	if f.cfg.BufferSize > 0 {
		return f.cfg.BufferSize
	}
	return defaultBufferSize
}

type redisStream struct {
	sub       *goredis.PubSub
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

func (s *redisStream) pump(logg *logger.Logger) {
	for msg := range s.sub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			if logg != nil {
				logg.Error(context.Background(), "dropping undecodable feed event", err)
			}
			continue
		}
		select {
		case s.ch <- event:
		case <-s.done:
			close(s.ch)
			return
		}
	}
	// Channel() closes when the connection drops or Close is called; only the
	// former is an error the consumer should react to.
	select {
	case <-s.done:
	default:
		s.err = pkgerrors.New(pkgerrors.CodeTransientNetwork, "feed connection closed")
	}
	close(s.ch)
}

func (s *redisStream) Events() <-chan Event {
	return s.ch
}

func (s *redisStream) Err() error {
	return s.err
}

func (s *redisStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.sub.Close()
	})
	return err
}
