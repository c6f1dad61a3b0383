package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/attendance-service/internal/config"
)

const metadataEventType = "event_type"

// Bus is a watermill publisher/subscriber pair on a single topic
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	Topic      string
	Backend    string
}

// NewBus connects to Kafka when brokers are configured and otherwise uses
// an in-process go channel.
func NewBus(cfg config.KafkaConfig, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if len(cfg.Brokers) == 0 {
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		return &Bus{Publisher: pubSub, Subscriber: pubSub, Topic: cfg.Topic, Backend: "gochannel"}, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:       cfg.Brokers,
		Unmarshaler:   kafka.DefaultMarshaler{},
		ConsumerGroup: cfg.ConsumerGroup,
	}, wmLogger)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return &Bus{Publisher: publisher, Subscriber: subscriber, Topic: cfg.Topic, Backend: "kafka"}, nil
}

// Close closes both sides; a gochannel is closed once
func (b *Bus) Close() error {
	err := b.Publisher.Close()
	if any(b.Subscriber) != any(b.Publisher) {
		err = errors.Join(err, b.Subscriber.Close())
	}
	return err
}

// WatermillPublisher publishes events as JSON messages on the bus topic
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillPublisher(bus *Bus, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: bus.Publisher,
		topic:     bus.Topic,
		logger:    logger,
	}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(metadataEventType, string(event.Type))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.Type, "event_id", event.ID, "error", err)
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.DebugContext(ctx, "Event published", "event_type", event.Type, "event_id", event.ID)
	return nil
}

// Close is a no-op; the bus owns the underlying publisher
func (p *WatermillPublisher) Close() error {
	return nil
}

// Consume subscribes to the bus topic and feeds every event to handler until
// ctx is cancelled. Messages failing to decode are acked and dropped; handler
// errors nack the message.
func Consume(ctx context.Context, bus *Bus, handler Handler, logger *slog.Logger) error {
	messages, err := bus.Subscriber.Subscribe(ctx, bus.Topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", bus.Topic, err)
	}

	go func() {
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logger.WarnContext(ctx, "Dropping undecodable event", "message_uuid", msg.UUID, "error", err)
				msg.Ack()
				continue
			}

			if err := handler(msg.Context(), &event); err != nil {
				logger.ErrorContext(ctx, "Event handler failed", "event_type", event.Type, "event_id", event.ID, "error", err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}
