package kafkaretry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsSink receives the four named metric events. Implementations must
// be safe for concurrent use; events carry no ordering guarantee and are
// fire-and-forget.
type MetricsSink interface {
	BlockingRetryHandlerInvocationFailed(tp TopicPartition, offset int64, kind string)
	BlockingIgnoredOnceFor(tp TopicPartition, offset int64)
	BlockingIgnoredForAllFor(tp TopicPartition, offset int64)
	NoRetryOnNonRetryableFailure(tp TopicPartition, offset int64, cause error)
}

// NopMetricsSink discards every event. Useful as a default and in tests
// that don't assert on metrics.
type NopMetricsSink struct{}

func (NopMetricsSink) BlockingRetryHandlerInvocationFailed(TopicPartition, int64, string) {}
func (NopMetricsSink) BlockingIgnoredOnceFor(TopicPartition, int64)                       {}
func (NopMetricsSink) BlockingIgnoredForAllFor(TopicPartition, int64)                     {}
func (NopMetricsSink) NoRetryOnNonRetryableFailure(TopicPartition, int64, error)          {}

// PrometheusMetricsSink reports the four events as Prometheus counters,
// labelled by topic and partition, mirroring the promauto.NewCounterVec
// style used throughout this codebase's retry and outbox instrumentation.
type PrometheusMetricsSink struct {
	invocationFailed *prometheus.CounterVec
	ignoredOnce      *prometheus.CounterVec
	ignoredAll       *prometheus.CounterVec
	noRetry          *prometheus.CounterVec
}

// NewPrometheusMetricsSink registers the retry dispatcher's counters
// against reg. Pass prometheus.DefaultRegisterer for the global registry.
func NewPrometheusMetricsSink(reg prometheus.Registerer) *PrometheusMetricsSink {
	factory := promauto.With(reg)
	return &PrometheusMetricsSink{
		invocationFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_retry_blocking_invocation_failed_total",
			Help: "Blocking retry invocations that failed with a retriable error.",
		}, []string{"topic", "partition", "kind"}),
		ignoredOnce: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_retry_blocking_ignored_once_total",
			Help: "Blocking retries skipped by a one-shot operator override.",
		}, []string{"topic", "partition"}),
		ignoredAll: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_retry_blocking_ignored_all_total",
			Help: "Blocking retries skipped by a durable operator override.",
		}, []string{"topic", "partition"}),
		noRetry: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_retry_no_retry_non_retryable_total",
			Help: "Records consumed without retry after a non-retriable handler failure.",
		}, []string{"topic", "partition"}),
	}
}

func (s *PrometheusMetricsSink) BlockingRetryHandlerInvocationFailed(tp TopicPartition, _ int64, kind string) {
	s.invocationFailed.WithLabelValues(tp.Topic, partitionLabel(tp.Partition), kind).Inc()
}

func (s *PrometheusMetricsSink) BlockingIgnoredOnceFor(tp TopicPartition, _ int64) {
	s.ignoredOnce.WithLabelValues(tp.Topic, partitionLabel(tp.Partition)).Inc()
}

func (s *PrometheusMetricsSink) BlockingIgnoredForAllFor(tp TopicPartition, _ int64) {
	s.ignoredAll.WithLabelValues(tp.Topic, partitionLabel(tp.Partition)).Inc()
}

func (s *PrometheusMetricsSink) NoRetryOnNonRetryableFailure(tp TopicPartition, _ int64, _ error) {
	s.noRetry.WithLabelValues(tp.Topic, partitionLabel(tp.Partition)).Inc()
}

func partitionLabel(p int32) string {
	return strconv.Itoa(int(p))
}
