package kafka

import (
	"crypto/tls"
	"time"

	"github.com/Shopify/sarama"
	"github.com/billforge/billforge/internal/config"
)

func GetSaramaConfig(cfg *config.Configuration) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_1_0_0

	saramaConfig.ClientID = cfg.Kafka.ClientID

	// Start from the earliest message when the group has no committed
	// offset, so billing run requests published before the worker came
	// up are not lost
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 5000 * time.Millisecond
	saramaConfig.Consumer.Offsets.Retry.Max = 3

	if cfg.Kafka.TLS {
		saramaConfig.Net.TLS.Enable = true
		saramaConfig.Net.TLS.Config = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	if !cfg.Kafka.UseSASL {
		return saramaConfig
	}

	saramaConfig.Net.SASL.Enable = true
	saramaConfig.Net.TLS.Enable = true
	saramaConfig.Net.SASL.Mechanism = sarama.SASLMechanism(cfg.Kafka.SASLMechanism)
	saramaConfig.Net.SASL.User = cfg.Kafka.SASLUser
	saramaConfig.Net.SASL.Password = cfg.Kafka.SASLPassword

	return saramaConfig
}
