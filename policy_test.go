package kafkaretry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryTopicName(t *testing.T) {
	require.Equal(t, "orders-billing-retry-0", RetryTopicName("orders", "billing", 0))
	require.Equal(t, "orders-billing-retry-7", RetryTopicName("orders", "billing", 7))
}

func TestIsRetryTopic(t *testing.T) {
	attempt, ok := IsRetryTopic("orders-billing-retry-2", "orders", "billing")
	require.True(t, ok)
	require.Equal(t, int32(2), attempt)

	_, ok = IsRetryTopic("orders", "orders", "billing")
	require.False(t, ok)

	_, ok = IsRetryTopic("orders-billing-retry-x", "orders", "billing")
	require.False(t, ok)

	_, ok = IsRetryTopic("other-billing-retry-1", "orders", "billing")
	require.False(t, ok)
}

func TestDecide_NonBlockingRetry_FirstFailure(t *testing.T) {
	sub := NewSubscription("orders", "billing")
	cfg := NonBlockingRetry{Backoffs: []time.Duration{time.Second, 5 * time.Second}}
	rec := ConsumerRecord{Topic: "orders"}

	action := Decide(rec, cfg, sub, 0)
	republish, ok := action.(NonBlockingRepublish)
	require.True(t, ok)
	require.Equal(t, "orders-billing-retry-0", republish.Topic)
	require.Equal(t, int32(0), republish.Attempt)
	require.Equal(t, time.Second, republish.Backoff)
}

func TestDecide_NonBlockingRetry_OnRetryTopicAdvances(t *testing.T) {
	sub := NewSubscription("orders", "billing")
	cfg := NonBlockingRetry{Backoffs: []time.Duration{time.Second, 5 * time.Second}}
	rec := ConsumerRecord{Topic: "orders-billing-retry-0"}

	action := Decide(rec, cfg, sub, 0)
	republish, ok := action.(NonBlockingRepublish)
	require.True(t, ok)
	require.Equal(t, "orders-billing-retry-1", republish.Topic)
	require.Equal(t, int32(1), republish.Attempt)
	require.Equal(t, 5*time.Second, republish.Backoff)
}

func TestDecide_NonBlockingRetry_Exhausted(t *testing.T) {
	sub := NewSubscription("orders", "billing")
	cfg := NonBlockingRetry{Backoffs: []time.Duration{time.Second}}
	rec := ConsumerRecord{Topic: "orders-billing-retry-0"}

	action := Decide(rec, cfg, sub, 0)
	require.IsType(t, TerminalGiveUp{}, action)
}

func TestDecide_FiniteBlockingRetry(t *testing.T) {
	sub := NewSubscription("orders", "billing")
	cfg := FiniteBlockingRetry{Backoffs: []time.Duration{200 * time.Millisecond, 2 * time.Second}}
	rec := ConsumerRecord{Topic: "orders"}

	action := Decide(rec, cfg, sub, 0)
	retry, ok := action.(BlockingRetry)
	require.True(t, ok)
	require.Equal(t, 200*time.Millisecond, retry.Backoff)

	action = Decide(rec, cfg, sub, 2)
	require.IsType(t, TerminalGiveUp{}, action)
}

func TestDecide_InfiniteBlockingRetry_NeverExhausts(t *testing.T) {
	sub := NewSubscription("orders", "billing")
	cfg := InfiniteBlockingRetry{Backoff: 5 * time.Second}
	rec := ConsumerRecord{Topic: "orders"}

	action := Decide(rec, cfg, sub, 1000)
	retry, ok := action.(BlockingRetry)
	require.True(t, ok)
	require.Equal(t, 5*time.Second, retry.Backoff)
}

func TestDecide_BlockingFollowedByNonBlocking_SwitchesPhase(t *testing.T) {
	sub := NewSubscription("orders", "billing")
	cfg := BlockingFollowedByNonBlocking{
		Blocking:    []time.Duration{time.Second, 2 * time.Second},
		NonBlocking: []time.Duration{30 * time.Second},
	}
	rec := ConsumerRecord{Topic: "orders"}

	action := Decide(rec, cfg, sub, 0)
	require.IsType(t, BlockingRetry{}, action)

	action = Decide(rec, cfg, sub, 2)
	republish, ok := action.(NonBlockingRepublish)
	require.True(t, ok)
	require.Equal(t, "orders-billing-retry-0", republish.Topic)
	require.Equal(t, int32(0), republish.Attempt)
	require.Equal(t, 30*time.Second, republish.Backoff)
}
