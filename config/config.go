// Package config loads retry dispatcher configuration the way this
// codebase's internal/config packages load service configuration: viper,
// yaml + env, mapstructure tags.
package config

import "time"

// Kind discriminates the RetryConfig shape named in a config file; it
// mirrors the kafkaretry.Config variants one level up so a YAML/env
// source can name one without importing the core's type-switch details.
type Kind string

const (
	KindNonBlocking                   Kind = "non_blocking"
	KindFiniteBlocking                Kind = "finite_blocking"
	KindInfiniteBlocking              Kind = "infinite_blocking"
	KindBlockingFollowedByNonBlocking Kind = "blocking_then_non_blocking"
)

// RetrySection is the retry-policy shape read out of YAML/env.
type RetrySection struct {
	Kind                Kind            `mapstructure:"kind"`
	BlockingBackoffs    []time.Duration `mapstructure:"blocking_backoffs"`
	NonBlockingBackoffs []time.Duration `mapstructure:"non_blocking_backoffs"`
	InfiniteBackoff     time.Duration   `mapstructure:"infinite_backoff"`
}

// KafkaSection is the transport configuration shared by the consumer and
// the republish producer.
type KafkaSection struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// Config is the top-level shape Load produces.
type Config struct {
	Kafka    KafkaSection `mapstructure:"kafka"`
	Retry    RetrySection `mapstructure:"retry"`
	LogLevel string       `mapstructure:"log_level"`
}
