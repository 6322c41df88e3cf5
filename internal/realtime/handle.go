package realtime

import (
	"context"
	"sync"

	"github.com/Luksow29/classic-offset-backend/pkg/feed"
)

// Handle is one live synced view. The worker goroutine owns all writes; any
// goroutine may read, refresh, or close.
type Handle struct {
	mu   sync.RWMutex
	coll *collection
	err  error

	done      chan struct{}
	closeOnce sync.Once

	// notify coalesces change signals: a slow reader sees at most one
	// pending wakeup and reads the latest rows when it gets there.
	notify chan struct{}

	refetch SnapshotFunc
}

func newHandle(refetch SnapshotFunc) *Handle {
	return &Handle{
		coll:    newCollection(),
		done:    make(chan struct{}),
		notify:  make(chan struct{}, 1),
		refetch: refetch,
	}
}

// Rows returns a copy of the current view in order.
func (h *Handle) Rows() []Row {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.coll.snapshot()
}

// Err reports why the subscription stopped. It is meaningful after Done is
// closed; a nil error means a clean Close.
func (h *Handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Done is closed when the subscription stops for any reason.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Close stops the subscription. Safe to call from any goroutine and more
// than once; later calls are no-ops. The done channel closes under the
// mutex: once Close returns, in-flight events can no longer merge.
func (h *Handle) Close() error {
	h.mu.Lock()
	h.closeOnce.Do(func() {
		close(h.done)
	})
	h.mu.Unlock()
	return nil
}

// Refresh replaces the whole view with a fresh snapshot. Used by callers that
// suspect staleness; the hub also refreshes after every reconnect. After
// Close it returns an error without touching the view.
func (h *Handle) Refresh(ctx context.Context) error {
	if h.closed() {
		return errHandleClosed
	}
	rows, err := h.refetch(ctx)
	if err != nil {
		return err
	}
	h.replace(rows)
	return nil
}

func (h *Handle) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Updates signals that the view changed since the last read. Signals
// coalesce; read Rows for the current state.
func (h *Handle) Updates() <-chan struct{} {
	return h.notify
}

// apply merges one event. The closed check runs under the mutex so an event
// already drained from the stream cannot mutate the view once Close returns.
func (h *Handle) apply(event feed.Event) bool {
	h.mu.Lock()
	if h.closed() {
		h.mu.Unlock()
		return false
	}
	changed := h.coll.apply(event)
	h.mu.Unlock()
	if changed {
		h.wake()
	}
	return changed
}

func (h *Handle) replace(rows []Row) {
	h.mu.Lock()
	if h.closed() {
		h.mu.Unlock()
		return
	}
	h.coll.replace(rows)
	h.mu.Unlock()
	h.wake()
}

func (h *Handle) wake() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// fail records the terminal error and releases waiters.
func (h *Handle) fail(err error) {
	h.mu.Lock()
	h.err = err
	h.closeOnce.Do(func() {
		close(h.done)
	})
	h.mu.Unlock()
}
