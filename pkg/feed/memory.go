package feed

import (
	"context"
	"sync"

	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	pkgerrors "github.com/Luksow29/classic-offset-backend/pkg/errors"
)

const defaultBufferSize = 256

// MemoryFeed is an in-process Feed used by single-process wiring and tests.
// Delivery is best-effort: a subscriber that falls more than the buffer size
// behind is disconnected and must reconcile, mirroring the remote transport.
type MemoryFeed struct {
	mu      sync.Mutex
	buffer  int
	subs    map[enums.FeedEntity]map[*memoryStream]struct{}
	closed  bool
	nextErr error
}

// NewMemoryFeed builds an in-process feed with the given per-stream buffer.
func NewMemoryFeed(buffer int) *MemoryFeed {
	if buffer <= 0 {
		buffer = defaultBufferSize
	}
	return &MemoryFeed{
		buffer: buffer,
		subs:   make(map[enums.FeedEntity]map[*memoryStream]struct{}),
	}
}

// Publish fans the event out to every live subscriber of its entity.
func (f *MemoryFeed) Publish(ctx context.Context, event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return pkgerrors.New(pkgerrors.CodeTransientNetwork, "feed closed")
	}
	for stream := range f.subs[event.Entity] {
		select {
		case stream.ch <- event:
		default:
			// Slow consumer: disconnect so it performs a reconciling refetch.
			f.dropLocked(event.Entity, stream, pkgerrors.New(pkgerrors.CodeTransientNetwork, "subscriber lagging"))
		}
	}
	return nil
}

// Subscribe registers a stream for the entity.
func (f *MemoryFeed) Subscribe(ctx context.Context, entity enums.FeedEntity) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransientNetwork, err, "subscribe canceled")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, pkgerrors.New(pkgerrors.CodeTransientNetwork, "feed closed")
	}
	if f.nextErr != nil {
		err := f.nextErr
		f.nextErr = nil
		return nil, err
	}
	stream := &memoryStream{
		feed:   f,
		entity: entity,
		ch:     make(chan Event, f.buffer),
	}
	if f.subs[entity] == nil {
		f.subs[entity] = make(map[*memoryStream]struct{})
	}
	f.subs[entity][stream] = struct{}{}
	return stream, nil
}

// Disconnect severs every subscriber of the entity with a transient error.
// Used to exercise reconnection behavior.
func (f *MemoryFeed) Disconnect(entity enums.FeedEntity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := pkgerrors.New(pkgerrors.CodeTransientNetwork, "feed connection dropped")
	for stream := range f.subs[entity] {
		f.dropLocked(entity, stream, err)
	}
}

// FailNextSubscribe makes the next Subscribe call return err once.
func (f *MemoryFeed) FailNextSubscribe(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextErr = err
}

// Close tears down the feed and all subscribers.
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	for entity, streams := range f.subs {
		for stream := range streams {
			f.dropLocked(entity, stream, nil)
		}
	}
	return nil
}

func (f *MemoryFeed) dropLocked(entity enums.FeedEntity, stream *memoryStream, err error) {
	if _, ok := f.subs[entity][stream]; !ok {
		return
	}
	delete(f.subs[entity], stream)
	stream.errOnce.Do(func() {
		stream.err = err
		close(stream.ch)
	})
}

type memoryStream struct {
	feed    *MemoryFeed
	entity  enums.FeedEntity
	ch      chan Event
	errOnce sync.Once
	err     error
}

func (s *memoryStream) Events() <-chan Event {
	return s.ch
}

func (s *memoryStream) Err() error {
	return s.err
}

func (s *memoryStream) Close() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	s.feed.dropLocked(s.entity, s, nil)
	return nil
}
