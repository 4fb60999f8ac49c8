package webhook

import (
	"github.com/billforge/billforge/internal/httpclient"
	"github.com/billforge/billforge/internal/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		// Publisher services use to emit domain events
		publisher.NewPublisher,

		// HTTP client used for delivery
		httpclient.NewDefaultClient,

		// Handler that consumes the webhook topic
		NewHandler,
	),
)
