package types

import (
	"encoding/json"
	"time"
)

// Webhook event names emitted by the billing core. Delivery is a
// collaborator concern; the core only publishes the envelope.
const (
	WebhookEventFeeCreated       = "fee.created"
	WebhookEventFeeAdjusted      = "fee.adjusted"
	WebhookEventInvoiceFinalized = "invoice.finalized"
	WebhookEventInvoiceVoided    = "invoice.voided"
	WebhookEventWalletDepleted   = "wallet.depleted"
)

// WebhookEvent is the envelope published on the webhook topic.
// Payload carries the serialized domain object the event refers to.
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
