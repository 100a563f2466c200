package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemoryBus(10)
	deliveries, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	offeringID := uuid.New()
	event := Event{
		Type:       TypeReservationCreated,
		OccurredAt: time.Now().UTC(),
		OfferingID: offeringID,
		UserID:     7,
		Status:     "active",
	}
	require.NoError(t, bus.Publish(ctx, event))

	select {
	case d := <-deliveries:
		assert.Equal(t, TypeReservationCreated, d.Event.Type)
		assert.Equal(t, offeringID, d.Event.OfferingID)
		assert.Equal(t, 7, d.Event.UserID)
		d.Ack()
	case <-time.After(time.Second):
		t.Fatal("no delivery received")
	}
}

func TestMemoryBus_NackRequeue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemoryBus(10)
	deliveries, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Event{Type: TypeOfferingCapacityChanged, OfferingID: uuid.New()}))

	// 第一次投遞 Nack(requeue)，事件應再被投遞一次
	first := <-deliveries
	first.Nack(true)

	select {
	case second := <-deliveries:
		assert.Equal(t, TypeOfferingCapacityChanged, second.Event.Type)
		second.Ack()
	case <-time.After(time.Second):
		t.Fatal("requeued event not redelivered")
	}
}

func TestMemoryBus_NackDoesNotBlockWhenFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := &MemoryBusImpl{ch: make(chan Event, 1)}
	deliveries, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	bus.ch <- Event{Type: TypeReservationCreated, Status: "first"}
	first := <-deliveries

	// 第二筆被讀取循環取走後卡在投遞（無人收）；第三筆塞滿緩衝
	bus.ch <- Event{Type: TypeReservationCreated, Status: "second"}
	bus.ch <- Event{Type: TypeReservationCreated, Status: "third"}

	// 緩衝已滿仍不可阻塞：事件被丟棄而非讓 Nack 卡死
	done := make(chan struct{})
	go func() {
		first.Nack(true)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Nack blocked on a full bus")
	}
}
