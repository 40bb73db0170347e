package kafkaretry

import (
	"context"
	"sync"
	"time"
)

// fastClock is a real-time Clock that scales every requested duration down
// by scale, so tests exercise the real select-based sleep/wake path without
// waiting out production-sized backoffs.
type fastClock struct {
	scale float64
}

func newFastClock(scale float64) *fastClock { return &fastClock{scale: scale} }

func (c *fastClock) Now() time.Time { return time.Now() }

func (c *fastClock) Sleep(ctx context.Context, d time.Duration) <-chan struct{} {
	scaled := time.Duration(float64(d) * c.scale)
	if scaled < time.Millisecond {
		scaled = time.Millisecond
	}
	done := make(chan struct{})
	timer := time.NewTimer(scaled)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		close(done)
	}()
	return done
}

// fakeProducer records every Produce call; it never fails unless failNext
// is armed.
type fakeProducer struct {
	mu       sync.Mutex
	calls    []producedMessage
	failNext error
}

type producedMessage struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers []Header
}

func (p *fakeProducer) Produce(_ context.Context, topic string, key, value []byte, headers []Header) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext != nil {
		err := p.failNext
		p.failNext = nil
		return err
	}
	p.calls = append(p.calls, producedMessage{Topic: topic, Key: key, Value: value, Headers: headers})
	return nil
}

func (p *fakeProducer) messages() []producedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]producedMessage, len(p.calls))
	copy(out, p.calls)
	return out
}

// scriptedHandler returns errs[i] on its i-th invocation (clamped to the
// last entry once exhausted) and counts invocations.
type scriptedHandler struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (h *scriptedHandler) Handle(_ context.Context, _ ConsumerRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := h.calls
	if idx >= len(h.errs) {
		idx = len(h.errs) - 1
	}
	h.calls++
	if idx < 0 {
		return nil
	}
	return h.errs[idx]
}

func (h *scriptedHandler) invocations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// recordingMetrics counts every event by kind, ignoring labels.
type recordingMetrics struct {
	mu                sync.Mutex
	invocationFailed  int
	ignoredOnce       int
	ignoredAll        int
	noRetryNonRetry   int
}

func (m *recordingMetrics) BlockingRetryHandlerInvocationFailed(TopicPartition, int64, string) {
	m.mu.Lock()
	m.invocationFailed++
	m.mu.Unlock()
}

func (m *recordingMetrics) BlockingIgnoredOnceFor(TopicPartition, int64) {
	m.mu.Lock()
	m.ignoredOnce++
	m.mu.Unlock()
}

func (m *recordingMetrics) BlockingIgnoredForAllFor(TopicPartition, int64) {
	m.mu.Lock()
	m.ignoredAll++
	m.mu.Unlock()
}

func (m *recordingMetrics) NoRetryOnNonRetryableFailure(TopicPartition, int64, error) {
	m.mu.Lock()
	m.noRetryNonRetry++
	m.mu.Unlock()
}

func (m *recordingMetrics) snapshot() (invocationFailed, ignoredOnce, ignoredAll, noRetry int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invocationFailed, m.ignoredOnce, m.ignoredAll, m.noRetryNonRetry
}
