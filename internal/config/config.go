package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/billforge/billforge/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
	Kafka      KafkaConfig
	Webhook    WebhookConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// BillingConfig controls the billing run worker and fee computation
// policies that are not per-organization.
type BillingConfig struct {
	// WorkerCount is the number of concurrent (subscription, charge)
	// units of work processed by a billing run
	WorkerCount int `validate:"required,min=1"`

	// AggregationTimeout bounds a single aggregation pass over the
	// event store; on expiry the pass fails with a typed timeout error
	AggregationTimeout time.Duration `validate:"required"`

	// RunTopic is the pubsub topic billing run requests are consumed from
	RunTopic string `validate:"required"`
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
	TLS           bool
	UseSASL       bool
	SASLMechanism string
	SASLUser      string
	SASLPassword  string
}

type WebhookConfig struct {
	// Enabled toggles outbound webhook delivery entirely
	Enabled bool

	// Topic is the pubsub topic domain events are published to
	Topic string

	// Retry policy for message handlers attached to the router
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxElapsedTime  time.Duration

	// Tenants maps a tenant id to its delivery endpoint
	Tenants map[string]TenantWebhookConfig
}

type TenantWebhookConfig struct {
	Enabled        bool
	Endpoint       string
	Headers        map[string]string
	ExcludedEvents []string
}

func NewConfig() (*Configuration, error) {
	// Local overrides, ignored when absent
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billforge")

	v.SetEnvPrefix("BILLFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("billing.workercount", 8)
	v.SetDefault("billing.aggregationtimeout", 30*time.Second)
	v.SetDefault("billing.runtopic", "billing.run")
	v.SetDefault("webhook.enabled", true)
	v.SetDefault("webhook.topic", "billing.webhooks")
	v.SetDefault("webhook.maxretries", 3)
	v.SetDefault("webhook.initialinterval", 1*time.Second)
	v.SetDefault("webhook.maxinterval", 30*time.Second)
	v.SetDefault("webhook.multiplier", 2.0)
	v.SetDefault("webhook.maxelapsedtime", 2*time.Minute)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Deployment.Mode == types.ModeConsumer && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required in consumer mode")
	}

	return nil
}
