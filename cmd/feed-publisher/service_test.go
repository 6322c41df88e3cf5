package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Luksow29/classic-offset-backend/pkg/config"
	"github.com/Luksow29/classic-offset-backend/pkg/db/models"
	"github.com/Luksow29/classic-offset-backend/pkg/enums"
	"github.com/Luksow29/classic-offset-backend/pkg/feed"
	"github.com/Luksow29/classic-offset-backend/pkg/logger"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    []uuid.UUID
	markErr   error
}

func (r *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if limit < len(r.events) {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublished(id uuid.UUID) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(id uuid.UUID, cause error) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.failed = append(r.failed, id)
	return nil
}

type fakeFeed struct {
	errs      []error
	published []feed.Event
}

func (f *fakeFeed) Publish(ctx context.Context, event feed.Event) error {
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err != nil {
		return err
	}
	f.published = append(f.published, event)
	return nil
}

func newTestService(t *testing.T, repo outboxRepository, pub feedPublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Repository: repo,
		Feed:       pub,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func outboxRow(entity enums.FeedEntity, op enums.FeedOp) models.OutboxEvent {
	return models.OutboxEvent{
		ID:      uuid.New(),
		Entity:  entity,
		Op:      op,
		RowID:   uuid.NewString(),
		Payload: json.RawMessage(`{"status":"Printing"}`),
	}
}

func TestServiceProcessBatchPublishesInOrder(t *testing.T) {
	first := outboxRow(enums.EntityOrders, enums.FeedOpUpdate)
	second := outboxRow(enums.EntityOrderStatusLog, enums.FeedOpInsert)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakeFeed{}
	service := newTestService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(pub.published); got != 2 {
		t.Fatalf("unexpected publish count: %d", got)
	}
	if pub.published[0].RowID != first.RowID || pub.published[1].RowID != second.RowID {
		t.Fatalf("events published out of order")
	}
	if pub.published[0].Entity != enums.EntityOrders {
		t.Fatalf("unexpected entity %q", pub.published[0].Entity)
	}
	if string(pub.published[0].Row) != string(first.Payload) {
		t.Fatalf("payload not forwarded as row")
	}
	if got := len(repo.published); got != 2 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
}

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	first := outboxRow(enums.EntityOrders, enums.FeedOpUpdate)
	second := outboxRow(enums.EntityOrders, enums.FeedOpUpdate)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakeFeed{errs: []error{errors.New("transient")}}
	service := newTestService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if repo.failed[0] != first.ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.published[0] != second.ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestServiceProcessBatchEmptyReportsIdle(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakeFeed{})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
}

func TestServiceProcessBatchPropagatesFetchError(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	service := newTestService(t, repo, &fakeFeed{})

	if _, err := service.processBatch(context.Background()); err == nil {
		t.Fatalf("expected fetch error")
	}
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	base := 500 * time.Millisecond
	backoff := nextBackoff(0, base, maxBackoff)
	if backoff != base*2 {
		t.Fatalf("expected %s got %s", base*2, backoff)
	}
	for i := 0; i < 10; i++ {
		backoff = nextBackoff(backoff, base, maxBackoff)
	}
	if backoff != maxBackoff {
		t.Fatalf("expected backoff capped at %s, got %s", maxBackoff, backoff)
	}
}

func TestWithJitterStaysWithinWindow(t *testing.T) {
	base := time.Second
	for i := 0; i < 50; i++ {
		got := withJitter(base)
		if got < base || got >= base+jitterWindow {
			t.Fatalf("jittered value %s outside window", got)
		}
	}
	if withJitter(0) != 0 {
		t.Fatalf("zero duration should stay zero")
	}
}
