package config

import (
	"fmt"
	"strings"

	"github.com/NordCoder/kafkaretry"
	"github.com/spf13/viper"
)

// Load reads retry dispatcher configuration from path (if non-empty) and
// the environment, the same viper.New + SetDefault + AutomaticEnv +
// mapstructure idiom used across this codebase's service loaders.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "orders")
	v.SetDefault("kafka.group_id", "orders-consumer")

	v.SetDefault("retry.kind", string(KindBlockingFollowedByNonBlocking))
	v.SetDefault("retry.blocking_backoffs", []string{"200ms", "2s"})
	v.SetDefault("retry.non_blocking_backoffs", []string{"30s", "5m", "30m"})
	v.SetDefault("retry.infinite_backoff", "5s")

	v.SetDefault("log_level", "info")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RetryConfig translates the loaded RetrySection into a kafkaretry.Config
// variant, the boundary between the wire/config shape and the core's
// tagged-union types.
func (c *Config) RetryConfig() (kafkaretry.Config, error) {
	switch c.Retry.Kind {
	case KindNonBlocking:
		return kafkaretry.NonBlockingRetry{Backoffs: c.Retry.NonBlockingBackoffs}, nil
	case KindFiniteBlocking:
		return kafkaretry.FiniteBlockingRetry{Backoffs: c.Retry.BlockingBackoffs}, nil
	case KindInfiniteBlocking:
		return kafkaretry.InfiniteBlockingRetry{Backoff: c.Retry.InfiniteBackoff}, nil
	case KindBlockingFollowedByNonBlocking:
		return kafkaretry.BlockingFollowedByNonBlocking{
			Blocking:    c.Retry.BlockingBackoffs,
			NonBlocking: c.Retry.NonBlockingBackoffs,
		}, nil
	default:
		return nil, fmt.Errorf("config: unknown retry.kind %q", c.Retry.Kind)
	}
}
