package kafkaretry

import (
	"context"
	"errors"
	"time"
)

// LoopOutcome is the terminal state of one blocking-retry-loop run, per
// the per-record state machine in §4.4: Scheduled -> Blocked ->
// (Fired | Skipped | Released).
type LoopOutcome int

const (
	// Fired means the handler eventually succeeded or failed terminally
	// and was not interrupted by an operator override.
	Fired LoopOutcome = iota
	// Skipped means an operator override (IgnoringOnce or IgnoringAll)
	// released the record without invoking the handler again.
	Skipped
	// Released means the blocking backoff sequence was exhausted, or ctx
	// was cancelled before it was.
	Released
)

type loopRunner struct {
	store   Store
	clock   Clock
	handler UserHandler
	metrics MetricsSink
}

// blockingBackoffs is the blocking attempt schedule consulted by the
// loop: either a finite sequence (FiniteBlockingRetry, and the blocking
// half of BlockingFollowedByNonBlocking) or a fixed cadence repeated
// forever (InfiniteBlockingRetry).
type blockingBackoffs struct {
	fixed    []time.Duration
	infinite time.Duration
	isInf    bool
}

func (b blockingBackoffs) at(attempt int32) (time.Duration, bool) {
	if b.isInf {
		return b.infinite, true
	}
	if int(attempt) >= len(b.fixed) {
		return 0, false
	}
	return b.fixed[attempt], true
}

func finiteBackoffs(d []time.Duration) blockingBackoffs { return blockingBackoffs{fixed: d} }

func infiniteBackoffs(d time.Duration) blockingBackoffs {
	return blockingBackoffs{infinite: d, isInf: true}
}

func backoffsFor(cfg Config) blockingBackoffs {
	switch c := cfg.(type) {
	case FiniteBlockingRetry:
		return finiteBackoffs(c.Backoffs)
	case InfiniteBlockingRetry:
		return infiniteBackoffs(c.Backoff)
	case BlockingFollowedByNonBlocking:
		return finiteBackoffs(c.Blocking)
	default:
		return finiteBackoffs(nil)
	}
}

// runBlockingLoop executes §4.4 for rec starting at startAttempt against
// backoffs. It returns the outcome and, when the sequence is exhausted
// without success, the last retriable error observed; ctx.Err() when ctx
// is cancelled first; nil otherwise.
func (l loopRunner) runBlockingLoop(ctx context.Context, rec ConsumerRecord, backoffs blockingBackoffs, startAttempt int32) (LoopOutcome, error) {
	tp := TopicPartition{Topic: rec.Topic, Partition: rec.Partition}
	ptTarget := topicPartitionTargetFrom(tp)
	topicTarget := TopicTarget(rec.Topic)

	// On every exit path, a Blocked entry this loop wrote is reset to
	// Blocking; an override installed on the partition target is kept.
	defer l.store.UpdateAndGet(ptTarget, func(cur State) State {
		if _, ok := cur.(Blocked); ok {
			return Blocking{}
		}
		return cur
	})

	var lastErr error

	for attempt := startAttempt; ; attempt++ {
		backoff, ok := backoffs.at(attempt)
		if !ok {
			break
		}
		if ctx.Err() != nil {
			return Released, ctx.Err()
		}

		if outcome, handled := checkOverride(l.store, l.metrics, tp, rec.Offset); handled {
			return outcome, nil
		}

		l.store.Set(ptTarget, Blocked{
			Key:            rec.Key,
			Value:          rec.Value,
			Headers:        rec.Headers,
			TopicPartition: tp,
			Offset:         rec.Offset,
		})

		timerDone := l.clock.Sleep(ctx, backoff)
		for l.sleep(ctx, ptTarget, topicTarget, timerDone) {
		}

		// Re-check unconditionally, not only when sleep reports it woke us
		// for an override: an operator's Set can land in the window
		// between the Blocked write above and Subscribe's registration
		// inside sleep, closing no waiter channel at all. Only a fresh
		// Get after sleep returns is guaranteed to observe it, per the
		// no-missed-wakeup requirement on this loop.
		if outcome, handled := checkOverride(l.store, l.metrics, tp, rec.Offset); handled {
			return outcome, nil
		}
		if ctx.Err() != nil {
			l.store.Set(ptTarget, Blocking{})
			return Released, ctx.Err()
		}

		err := l.handler.Handle(ctx, rec)
		if err == nil {
			l.store.Set(ptTarget, Blocking{})
			return Fired, nil
		}

		var nonRetriable NonRetriableError
		if errors.As(err, &nonRetriable) {
			l.metrics.NoRetryOnNonRetryableFailure(tp, rec.Offset, nonRetriable.Cause)
			l.store.Set(ptTarget, Blocking{})
			return Fired, nil
		}

		l.metrics.BlockingRetryHandlerInvocationFailed(tp, rec.Offset, "RetriableError")
		lastErr = err
	}

	l.store.Set(ptTarget, Blocking{})
	return Released, lastErr
}

// checkOverride consults both TopicPartitionTarget(tp) and
// TopicTarget(tp.Topic), in that order, against the precedence IgnoringAll
// > IgnoringOnce (§4.4 step 2), and, if matched, emits the matching metric
// and (for IgnoringOnce) atomically resets the matched target to Blocking.
// It is shared by the top-level handler (which must skip a poisoned or
// drained record without invoking the user handler at all) and by the
// blocking loop (which re-checks on every attempt).
func checkOverride(store Store, metrics MetricsSink, tp TopicPartition, offset int64) (LoopOutcome, bool) {
	ptTarget := topicPartitionTargetFrom(tp)
	topicTarget := TopicTarget(tp.Topic)

	if _, ok := store.Get(ptTarget).(IgnoringAll); ok {
		metrics.BlockingIgnoredForAllFor(tp, offset)
		return Skipped, true
	}
	if _, ok := store.Get(topicTarget).(IgnoringAll); ok {
		metrics.BlockingIgnoredForAllFor(tp, offset)
		return Skipped, true
	}

	if _, ok := store.Get(ptTarget).(IgnoringOnce); ok {
		if compareAndSetIgnoringOnce(store, ptTarget) {
			metrics.BlockingIgnoredOnceFor(tp, offset)
			return Skipped, true
		}
	}
	if _, ok := store.Get(topicTarget).(IgnoringOnce); ok {
		if compareAndSetIgnoringOnce(store, topicTarget) {
			metrics.BlockingIgnoredOnceFor(tp, offset)
			return Skipped, true
		}
	}
	return 0, false
}

// sleep waits for timerDone, ctx, or a write to either target, whichever
// comes first. It reports true when a write woke it but neither target
// holds IgnoringOnce or IgnoringAll, so the caller keeps waiting on the
// same timer. Callers must re-check the store themselves once the wait
// ends rather than trust which case woke it: a write landing before
// Subscribe registers below never closes either channel, so the only
// reliable signal is a fresh Get after this returns.
func (l loopRunner) sleep(ctx context.Context, ptTarget, topicTarget Target, timerDone <-chan struct{}) bool {
	ptCh, ptCancel := l.store.Subscribe(ptTarget)
	defer ptCancel()
	topicCh, topicCancel := l.store.Subscribe(topicTarget)
	defer topicCancel()

	select {
	case <-ptCh:
	case <-topicCh:
	case <-timerDone:
		return false
	case <-ctx.Done():
		return false
	}
	for _, target := range []Target{ptTarget, topicTarget} {
		switch l.store.Get(target).(type) {
		case IgnoringOnce, IgnoringAll:
			return false
		}
	}
	return true
}
