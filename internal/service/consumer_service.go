package service

import (
	"context"
	"encoding/json"

	"focus-session-be/internal/pkg/logger"
	"focus-session-be/pkg/events"
	pkgNats "focus-session-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// IConsumerService relays lifecycle events from the in-process bus to the
// external sinks (NATS JetStream for analytics, a Redis channel for live
// subscribers). Delivery is best effort on both legs.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	natsPub      *pkgNats.Publisher
	redisClient  *redis.Client
	redisChannel string
	logger       logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	natsPub *pkgNats.Publisher,
	redisClient *redis.Client,
	redisChannel string,
	sysLogger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		natsPub:      natsPub,
		redisClient:  redisClient,
		redisChannel: redisChannel,
		logger:       sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.relay(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) relay(ctx context.Context, msg *message.Message) {
	// Relayed events are advisory; a malformed or undeliverable message is
	// logged and acked so it never clogs the bus.
	defer msg.Ack()

	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		cs.logger.Warn("consumer", "dropping malformed event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if cs.natsPub != nil {
		evt := events.BaseEvent{Type: envelope.Type, Data: envelope.Payload}
		if err := cs.natsPub.Publish(ctx, evt); err != nil {
			cs.logger.Warn("consumer", "NATS publish failed", map[string]interface{}{
				"event_type": envelope.Type,
				"error":      err.Error(),
			})
		}
	}

	if cs.redisClient != nil {
		if err := cs.redisClient.Publish(ctx, cs.redisChannel, msg.Payload).Err(); err != nil {
			cs.logger.Warn("consumer", "Redis publish failed", map[string]interface{}{
				"event_type": envelope.Type,
				"error":      err.Error(),
			})
		}
	}
}
