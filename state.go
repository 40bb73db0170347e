package kafkaretry

// State is one of Blocking, Blocked, IgnoringOnce, IgnoringAll. The loop
// and the store's callers type-switch over it; there is no fifth case.
type State interface {
	isState()
}

// Blocking is the default, absence-equivalent state: blocking retries
// execute their sleeps and reinvoke the handler normally.
type Blocking struct{}

func (Blocking) isState() {}

// Blocked is written by the blocking retry loop while it holds a record
// awaiting its next attempt. It is only ever installed under a
// TopicPartitionTarget and is cleared back to Blocking when the loop
// terminates.
type Blocked struct {
	Key, Value     []byte
	Headers        []Header
	TopicPartition TopicPartition
	Offset         int64
}

func (Blocked) isState() {}

// IgnoringOnce skips exactly one subsequent blocking retry matched by its
// target, then reverts to Blocking.
type IgnoringOnce struct{}

func (IgnoringOnce) isState() {}

// IgnoringAll skips every subsequent blocking retry matched by its target
// until the entry is changed again.
type IgnoringAll struct{}

func (IgnoringAll) isState() {}
