package kafkaretry

import (
	"fmt"
	"time"
)

// Action is one of RunUserHandler, BlockingRetry, NonBlockingRepublish,
// TerminalGiveUp.
type Action interface {
	isAction()
}

// RunUserHandler means the policy has nothing to add. Decide returns it
// only for a record on a retry topic under a config with no non-blocking
// phase; Handle then returns the handler's error as it does for
// TerminalGiveUp.
type RunUserHandler struct{}

func (RunUserHandler) isAction() {}

// BlockingRetry means the handler failed and should be retried in place.
type BlockingRetry struct {
	Backoff time.Duration
	Attempt int32
}

func (BlockingRetry) isAction() {}

// NonBlockingRepublish means the record should be republished to Topic
// with the given attempt index and scheduling backoff.
type NonBlockingRepublish struct {
	Topic   string
	Attempt int32
	Backoff time.Duration
}

func (NonBlockingRepublish) isAction() {}

// TerminalGiveUp means the retry schedule is exhausted (the blocking
// schedule of a blocking-only config, or the non-blocking schedule of a
// retry-topic record): the failure must surface to the caller.
type TerminalGiveUp struct{}

func (TerminalGiveUp) isAction() {}

// RetryTopicName returns the contractual retry topic name for the attempt
// index-th hop of topic under group.
func RetryTopicName(topic, group string, attempt int32) string {
	return fmt.Sprintf("%s-%s-retry-%d", topic, group, attempt)
}

// IsRetryTopic reports whether candidate is a retry topic of originalTopic
// under group, and if so, which attempt index it is.
func IsRetryTopic(candidate, originalTopic, group string) (attempt int32, ok bool) {
	prefix := originalTopic + "-" + group + "-retry-"
	if len(candidate) <= len(prefix) || candidate[:len(prefix)] != prefix {
		return 0, false
	}
	suffix := candidate[len(prefix):]
	n := int32(0)
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int32(c-'0')
	}
	return n, true
}

// Decide classifies rec under cfg and returns the next action, per §4.2.
// attempt is the current attempt count for rec: the non-blocking attempt
// decoded from its headers when rec is on a retry topic, or the blocking
// attempt already performed when rec is on the primary topic and a
// blocking retry is already underway (0 on first failure).
func Decide(rec ConsumerRecord, cfg Config, sub Subscription, attempt int32) Action {
	if _, isRetryHop := IsRetryTopic(rec.Topic, sub.Topic(), sub.GroupID()); isRetryHop {
		nb, ok := cfg.(NonBlockingRetry)
		if !ok {
			if bnb, ok := cfg.(BlockingFollowedByNonBlocking); ok {
				nb = NonBlockingRetry{Backoffs: bnb.NonBlocking}
			} else {
				return RunUserHandler{}
			}
		}
		next := attempt + 1
		if int(next) >= len(nb.Backoffs) {
			return TerminalGiveUp{}
		}
		return NonBlockingRepublish{
			Topic:   RetryTopicName(sub.Topic(), sub.GroupID(), next),
			Attempt: next,
			Backoff: nb.Backoffs[next],
		}
	}

	switch c := cfg.(type) {
	case FiniteBlockingRetry:
		if int(attempt) >= len(c.Backoffs) {
			return TerminalGiveUp{}
		}
		return BlockingRetry{Backoff: c.Backoffs[attempt], Attempt: attempt}
	case InfiniteBlockingRetry:
		return BlockingRetry{Backoff: c.Backoff, Attempt: attempt}
	case BlockingFollowedByNonBlocking:
		if int(attempt) < len(c.Blocking) {
			return BlockingRetry{Backoff: c.Blocking[attempt], Attempt: attempt}
		}
		if len(c.NonBlocking) == 0 {
			return TerminalGiveUp{}
		}
		return NonBlockingRepublish{
			Topic:   RetryTopicName(sub.Topic(), sub.GroupID(), 0),
			Attempt: 0,
			Backoff: c.NonBlocking[0],
		}
	case NonBlockingRetry:
		if len(c.Backoffs) == 0 {
			return TerminalGiveUp{}
		}
		return NonBlockingRepublish{
			Topic:   RetryTopicName(sub.Topic(), sub.GroupID(), 0),
			Attempt: 0,
			Backoff: c.Backoffs[0],
		}
	default:
		return TerminalGiveUp{}
	}
}
