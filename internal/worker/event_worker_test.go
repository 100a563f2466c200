package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-formation-reservation/internal/events"
	"go-formation-reservation/internal/worker"

	"github.com/google/uuid"
)

func TestEventWorker_HandlesPublishedEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus := events.NewMemoryBus(10)

	// handler 收到事件就往 channel 回報
	received := make(chan events.Event, 1)
	handler := func(_ context.Context, event events.Event) error {
		received <- event
		return nil
	}

	w := worker.NewEventWorker(bus, handler)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Failed to start worker: %v", err)
	}

	event := events.Event{
		Type:       events.TypeReservationCreated,
		OccurredAt: time.Now().UTC(),
		OfferingID: uuid.New(),
		UserID:     1,
		Status:     "active",
	}
	if err := bus.Publish(ctx, event); err != nil {
		t.Fatalf("Failed to publish event: %v", err)
	}

	select {
	case got := <-received:
		if got.Type != events.TypeReservationCreated {
			t.Errorf("Expected event type %s, got %s", events.TypeReservationCreated, got.Type)
		}
		if got.OfferingID != event.OfferingID {
			t.Errorf("Expected offering %s, got %s", event.OfferingID, got.OfferingID)
		}
	case <-time.After(1 * time.Second):
		t.Error("超時！Worker 沒有在時間內處理事件")
	}
}

func TestEventWorker_RetriesOnHandlerFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus := events.NewMemoryBus(10)

	// 第一次失敗觸發 Nack 重投，第二次成功
	attempts := make(chan int, 2)
	count := 0
	handler := func(_ context.Context, event events.Event) error {
		count++
		attempts <- count
		if count == 1 {
			return errors.New("transient failure")
		}
		return nil
	}

	w := worker.NewEventWorker(bus, handler)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Failed to start worker: %v", err)
	}

	if err := bus.Publish(ctx, events.Event{
		Type:       events.TypeReservationCancelled,
		OccurredAt: time.Now().UTC(),
		OfferingID: uuid.New(),
	}); err != nil {
		t.Fatalf("Failed to publish event: %v", err)
	}

	deadline := time.After(1 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-attempts:
		case <-deadline:
			t.Fatalf("超時！事件只被處理了 %d 次", i)
		}
	}
}
