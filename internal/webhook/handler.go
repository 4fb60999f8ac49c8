package webhook

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/httpclient"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/pubsub"
	pubsubRouter "github.com/billforge/billforge/internal/pubsub/router"
	"github.com/billforge/billforge/internal/types"
)

// Handler consumes domain events from the webhook topic and delivers
// them to the owning tenant's configured endpoint.
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub pubsub.PubSub
	config *config.WebhookConfig
	client httpclient.Client
	logger *logger.Logger
}

func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	client httpclient.Client,
	logger *logger.Logger,
) Handler {
	return &handler{
		pubSub: pubSub,
		config: &cfg.Webhook,
		client: client,
		logger: logger,
	}
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"webhook_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage delivers a single webhook message. Returning an error
// hands the message to the router's retry middleware; malformed or
// unroutable messages are dropped instead of retried.
func (h *handler) processMessage(msg *message.Message) error {
	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	ctx := types.SetTenantID(msg.Context(), event.TenantID)

	tenantCfg, ok := h.config.Tenants[event.TenantID]
	if !ok {
		h.logger.Warnw("tenant webhook config not found",
			"tenant_id", event.TenantID,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	if !tenantCfg.Enabled {
		h.logger.Debugw("webhooks disabled for tenant",
			"tenant_id", event.TenantID,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	for _, excluded := range tenantCfg.ExcludedEvents {
		if excluded == event.EventName {
			h.logger.Debugw("event excluded for tenant",
				"tenant_id", event.TenantID,
				"event", event.EventName,
			)
			return nil
		}
	}

	body, err := json.Marshal(&event)
	if err != nil {
		h.logger.Errorw("failed to marshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	req := &httpclient.Request{
		Method:  "POST",
		URL:     tenantCfg.Endpoint,
		Headers: tenantCfg.Headers,
		Body:    body,
	}

	resp, err := h.client.Send(ctx, req)
	if err != nil {
		h.logger.Errorw("failed to deliver webhook",
			"error", err,
			"message_uuid", msg.UUID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook delivered",
		"message_uuid", msg.UUID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
		"status_code", resp.StatusCode,
	)

	return nil
}
