package memory

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/pubsub"
)

// PubSub implements both Publisher and Subscriber interfaces using watermill's gochannel
type PubSub struct {
	pubsub *gochannel.GoChannel
	logger *logger.Logger
}

// NewPubSub creates a new memory-based pubsub
func NewPubSub(logger *logger.Logger) pubsub.PubSub {
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			// Retain messages published before the first subscriber attaches
			Persistent:                     true,
			BlockPublishUntilSubscriberAck: false,
			OutputChannelBuffer:            100,
		},
		watermill.NewStdLogger(false, false),
	)

	return &PubSub{
		pubsub: goChannel,
		logger: logger,
	}
}

// Publish publishes a message to the given topic
func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	return p.pubsub.Publish(topic, msg)
}

// Subscribe starts consuming messages from the given topic
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.pubsub.Subscribe(ctx, topic)
}

// Close closes both publisher and subscriber
func (p *PubSub) Close() error {
	return p.pubsub.Close()
}
