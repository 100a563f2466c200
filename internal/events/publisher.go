package events

import (
	"context"

	"go-formation-reservation/pkg/logger"

	"go.uber.org/zap"
)

type Publisher interface {
	// Publish 發送事件給下游
	Publish(ctx context.Context, event Event) error
}

type Subscriber interface {
	// Subscribe 訂閱事件流
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

// Bus 同時支援發送與訂閱的事件後端
type Bus interface {
	Publisher
	Subscriber
}

type MemoryBusImpl struct {
	// 使用 Go channel 模擬事件流，供測項與單機部署使用
	ch chan Event
}

func NewMemoryBus(bufferSize int) Bus {
	return &MemoryBusImpl{
		ch: make(chan Event, bufferSize),
	}
}

func (b *MemoryBusImpl) Publish(ctx context.Context, event Event) error {
	b.ch <- event
	return nil
}

func (b *MemoryBusImpl) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-b.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Event: event,
					Ack:   func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if !requeue {
							return
						}
						// 重回隊列不可阻塞：worker 在投遞循環裡呼叫 Nack，
						// 緩衝滿時寧可丟事件也不能讓匯流排卡死
						select {
						case b.ch <- event:
						default:
							logger.WithComponent("events").Warn("memory bus full, nacked event dropped",
								zap.String("event_type", string(event.Type)))
						}
					},
				}
			}
		}
	}()

	return out, nil
}
