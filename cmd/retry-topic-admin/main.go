// Command retry-topic-admin provisions the chain of retry topics a
// RetryConfig can republish to, ahead of traffic, the same env-driven
// one-shot CLI shape as this codebase's cmd/kafka-init.
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/NordCoder/kafkaretry/config"
	"github.com/NordCoder/kafkaretry/kafkago"
)

func main() {
	cfgPath := env("RETRY_ADMIN_CONFIG", "")
	parts := envInt("RETRY_ADMIN_PARTITIONS", 1)
	rf := envInt("RETRY_ADMIN_REPLICATION_FACTOR", 1)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	retryCfg, err := cfg.RetryConfig()
	if err != nil {
		log.Fatalf("resolve retry config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := kafkago.EnsureRetryTopics(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, retryCfg, parts, rf, nil); err != nil {
		log.Fatalf("ensure retry topics: %v", err)
	}
	log.Println("retry-topic-admin ok")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}
