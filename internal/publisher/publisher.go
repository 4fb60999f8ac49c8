package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/pubsub"
	"github.com/billforge/billforge/internal/types"
)

// WebhookPublisher produces webhook envelopes for downstream delivery.
// The core publishes and forgets; retries and endpoint fan-out belong
// to the delivery service consuming the topic.
type WebhookPublisher interface {
	PublishWebhook(ctx context.Context, eventName string, payload interface{}) error
	Close() error
}

type webhookPublisher struct {
	pubSub pubsub.PubSub
	config *config.WebhookConfig
	logger *logger.Logger
}

// NewPublisher creates a webhook publisher on top of the given pubsub
func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) WebhookPublisher {
	return &webhookPublisher{
		pubSub: pubSub,
		config: &cfg.Webhook,
		logger: logger,
	}
}

func (p *webhookPublisher) PublishWebhook(ctx context.Context, eventName string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		TenantID:  types.GetTenantID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	messageID := event.ID
	if messageID == "" {
		messageID = watermill.NewUUID()
	}

	msg := message.NewMessage(messageID, body)
	msg.Metadata.Set("tenant_id", event.TenantID)
	msg.Metadata.Set("event_name", event.EventName)

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish webhook event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
			"tenant_id", event.TenantID,
		)
		return err
	}

	p.logger.Debugw("published webhook event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"topic", p.config.Topic,
	)

	return nil
}

func (p *webhookPublisher) Close() error {
	return p.pubSub.Close()
}
