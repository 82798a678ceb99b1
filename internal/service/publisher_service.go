package service

import (
	"context"
	"encoding/json"

	"focus-session-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService puts lifecycle events on the in-process bus. The engine
// treats publishing as fire-and-forget: a sink outage never fails a
// session transition.
type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type eventEnvelope struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt string                 `json:"occurred_at"`
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (s *publisherService) Publish(ctx context.Context, event events.Event) error {
	envelope := eventEnvelope{
		Type:       event.EventType(),
		Payload:    event.Payload(),
		OccurredAt: event.Timestamp().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	msg.Metadata.Set("event_type", event.EventType())

	return s.pubSub.Publish(s.topicName, msg)
}
