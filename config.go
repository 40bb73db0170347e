package kafkaretry

import "time"

// Config is one of NonBlockingRetry, FiniteBlockingRetry,
// InfiniteBlockingRetry, BlockingFollowedByNonBlocking.
type Config interface {
	isConfig()
}

// NonBlockingRetry republishes the record to the next retry topic on every
// failure, with Backoffs[attempt] as the scheduling delay, until the
// sequence is exhausted.
type NonBlockingRetry struct {
	Backoffs []time.Duration
}

func (NonBlockingRetry) isConfig() {}

// FiniteBlockingRetry retries in place, one attempt per entry of Backoffs;
// after exhaustion the partition is released back to Blocking and the
// failure surfaces to the caller.
type FiniteBlockingRetry struct {
	Backoffs []time.Duration
}

func (FiniteBlockingRetry) isConfig() {}

// InfiniteBlockingRetry retries in place forever at a fixed cadence, until
// success or an operator override.
type InfiniteBlockingRetry struct {
	Backoff time.Duration
}

func (InfiniteBlockingRetry) isConfig() {}

// BlockingFollowedByNonBlocking exhausts Blocking in place first; if still
// failing, it switches to republishing starting at non-blocking attempt 0.
type BlockingFollowedByNonBlocking struct {
	Blocking    []time.Duration
	NonBlocking []time.Duration
}

func (BlockingFollowedByNonBlocking) isConfig() {}
