package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"

	"timed-quiz-service/internal/domain"
)

const TopicAttemptFinalized = "attempt.finalized"

// FinalizedHandler consumes one AttemptFinalized event.
type FinalizedHandler func(ctx context.Context, evt domain.AttemptFinalized) error

// Bus is an in-process publisher/subscriber for attempt events.
type Bus struct {
	pubsub *gochannel.GoChannel
	log    *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewZapAdapter(log)),
		log:    log,
	}
}

func (b *Bus) PublishFinalized(ctx context.Context, evt domain.AttemptFinalized) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return b.pubsub.Publish(TopicAttemptFinalized, msg)
}

// SubscribeFinalized delivers every event to handler until ctx is done or the bus is closed.
// A failing handler is logged; the event is not redelivered.
func (b *Bus) SubscribeFinalized(ctx context.Context, handler FinalizedHandler) error {
	messages, err := b.pubsub.Subscribe(ctx, TopicAttemptFinalized)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicAttemptFinalized, err)
	}
	go func() {
		for msg := range messages {
			var evt domain.AttemptFinalized
			if err := json.Unmarshal(msg.Payload, &evt); err != nil {
				b.log.Error("drop malformed event", zap.String("message_id", msg.UUID), zap.Error(err))
				msg.Ack()
				continue
			}
			if err := handler(msg.Context(), evt); err != nil {
				b.log.Warn("event handler failed",
					zap.String("attempt_id", evt.AttemptID),
					zap.Error(err))
			}
			msg.Ack()
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
