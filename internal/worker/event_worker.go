package worker

import (
	"context"

	"go-formation-reservation/internal/events"
	"go-formation-reservation/pkg/logger"

	"go.uber.org/zap"
)

// EventHandler 處理單一事件；回錯誤則 Nack 重試
type EventHandler func(ctx context.Context, event events.Event) error

type EventWorker interface {
	Start(ctx context.Context) error
}

// EventWorkerImpl 訂閱事件流並交給 handler 處理。
// handler 預設只做下游轉發用的紀錄；通知、分析等協作者各自消費。
type EventWorkerImpl struct {
	subscriber events.Subscriber
	handler    EventHandler
}

func NewEventWorker(subscriber events.Subscriber, handler EventHandler) EventWorker {
	if handler == nil {
		handler = logEvent
	}
	return &EventWorkerImpl{
		subscriber: subscriber,
		handler:    handler,
	}
}

func (w *EventWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.subscriber.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			if err := w.handler(ctx, msg.Event); err != nil {
				// 處理失敗，留給事件流重試
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}

func logEvent(_ context.Context, event events.Event) error {
	log := logger.WithComponent("worker").With(
		zap.String("event_type", string(event.Type)),
		zap.String("offering_id", event.OfferingID.String()),
	)
	if event.ReservationID != nil {
		log = log.With(zap.String("reservation_id", event.ReservationID.String()))
	}
	log.Info("domain event consumed")
	return nil
}
