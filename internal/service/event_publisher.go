package service

import (
	"context"

	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/pkg/logger"
	"github.com/haierkeys/note-registry-service/pkg/workerpool"
	"go.uber.org/zap"
)

// Broadcaster sends a message to every live subscriber
// Broadcaster 向所有在线订阅者发送消息
type Broadcaster interface {
	Broadcast(msg any)
}

type hubPublisher struct {
	hub    Broadcaster
	pool   *workerpool.Pool
	logger *zap.Logger
}

// NewHubPublisher publishes events through hub on the worker pool.
// A nil pool broadcasts on the calling goroutine.
// NewHubPublisher 通过 worker pool 异步广播事件, pool 为 nil 时同步广播
func NewHubPublisher(hub Broadcaster, pool *workerpool.Pool, lg *zap.Logger) EventPublisher {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &hubPublisher{hub: hub, pool: pool, logger: lg}
}

func (p *hubPublisher) Publish(ctx context.Context, events []domain.Event) {
	msgs := make([]*EventDTO, 0, len(events))
	for i := range events {
		msgs = append(msgs, EventToDTO(&events[i]))
	}

	broadcast := func(context.Context) error {
		for _, m := range msgs {
			p.hub.Broadcast(m)
		}
		return nil
	}

	if p.pool == nil {
		_ = broadcast(ctx)
		return
	}
	// the request context ends with the response, publication must outlive it
	if err := p.pool.SubmitAsync(context.Background(), broadcast); err != nil {
		logger.WithTrace(ctx, p.logger).Warn("event publish dropped", zap.Int("events", len(msgs)), zap.Error(err))
	}
}
