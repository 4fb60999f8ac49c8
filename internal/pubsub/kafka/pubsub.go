package kafka

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	wkafka "github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/pubsub"
)

// PubSub implements pubsub.PubSub backed by kafka through watermill
type PubSub struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	config     *config.Configuration
	logger     *logger.Logger
}

// NewPubSub creates a new kafka-based pubsub
func NewPubSub(cfg *config.Configuration, logger *logger.Logger) (pubsub.PubSub, error) {
	saramaConfig := GetSaramaConfig(cfg)

	publisher, err := wkafka.NewPublisher(
		wkafka.PublisherConfig{
			Brokers:               cfg.Kafka.Brokers,
			Marshaler:             wkafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	subscriber, err := wkafka.NewSubscriber(
		wkafka.SubscriberConfig{
			Brokers:               cfg.Kafka.Brokers,
			ConsumerGroup:         cfg.Kafka.ConsumerGroup,
			Unmarshaler:           wkafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return nil, err
	}

	return &PubSub{
		publisher:  publisher,
		subscriber: subscriber,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Publish publishes a message to the given topic
func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	return p.publisher.Publish(topic, msg)
}

// Subscribe starts consuming messages from the given topic
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.subscriber.Subscribe(ctx, topic)
}

// Close closes the pubsub
func (p *PubSub) Close() error {
	if err := p.publisher.Close(); err != nil {
		return err
	}
	return p.subscriber.Close()
}
