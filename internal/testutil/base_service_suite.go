package testutil

import (
	"context"
	"time"

	"github.com/billforge/billforge/internal/config"
	"github.com/billforge/billforge/internal/logger"
	"github.com/billforge/billforge/internal/publisher"
	"github.com/billforge/billforge/internal/pubsub/memory"
	repomemory "github.com/billforge/billforge/internal/repository/memory"
	"github.com/billforge/billforge/internal/types"
	"github.com/billforge/billforge/internal/validator"
	"github.com/stretchr/testify/suite"
)

// BaseServiceTestSuite provides common functionality for all service
// test suites: a tenant-scoped context, fresh in-memory stores per
// test and a working webhook publisher over the in-memory pubsub.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           *repomemory.Repositories
	webhookPublisher publisher.WebhookPublisher
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := &config.Configuration{
		Deployment: config.DeploymentConfig{
			Mode: types.ModeLocal,
		},
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
		Billing: config.BillingConfig{
			WorkerCount:        4,
			AggregationTimeout: 10 * time.Second,
			RunTopic:           "billing.run",
		},
		Webhook: config.WebhookConfig{
			Topic: "billing.webhooks",
		},
	}

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.stores = repomemory.NewRepositories()
	s.webhookPublisher = publisher.NewPublisher(memory.NewPubSub(s.logger), s.config, s.logger)
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = types.SetTenantID(s.ctx, types.DefaultTenantID)
	s.ctx = types.SetUserID(s.ctx, types.DefaultUserID)
	s.ctx = types.SetRequestID(s.ctx, types.GenerateUUID())
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetStores returns the in-memory repositories
func (s *BaseServiceTestSuite) GetStores() *repomemory.Repositories {
	return s.stores
}

// GetWebhookPublisher returns the test webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() publisher.WebhookPublisher {
	return s.webhookPublisher
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the timestamp captured at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
