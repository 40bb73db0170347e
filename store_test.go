package kafkaretry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShardedStore_DefaultIsBlocking(t *testing.T) {
	s := NewShardedStore()
	st := s.Get(TopicTarget("orders"))
	require.IsType(t, Blocking{}, st)
}

func TestShardedStore_SetGet(t *testing.T) {
	s := NewShardedStore()
	target := TopicPartitionTarget("orders", 3)
	s.Set(target, IgnoringAll{})
	require.IsType(t, IgnoringAll{}, s.Get(target))

	s.Set(target, Blocking{})
	require.IsType(t, Blocking{}, s.Get(target))
}

func TestShardedStore_TopicAndPartitionTargetsAreIndependent(t *testing.T) {
	s := NewShardedStore()
	s.Set(TopicTarget("orders"), IgnoringAll{})
	require.IsType(t, Blocking{}, s.Get(TopicPartitionTarget("orders", 0)))
	require.IsType(t, IgnoringAll{}, s.Get(TopicTarget("orders")))
}

func TestShardedStore_SubscribeFiresOnWrite(t *testing.T) {
	s := NewShardedStore()
	target := TopicPartitionTarget("orders", 1)
	ch, cancel := s.Subscribe(target)
	defer cancel()

	select {
	case <-ch:
		t.Fatal("channel fired before any write")
	default:
	}

	s.Set(target, IgnoringOnce{})
	select {
	case <-ch:
	default:
		t.Fatal("channel did not fire after write")
	}
}

func TestShardedStore_CancelRemovesWaiter(t *testing.T) {
	s := NewShardedStore()
	target := TopicTarget("orders")
	ch, cancel := s.Subscribe(target)
	cancel()
	s.Set(target, IgnoringOnce{})

	select {
	case <-ch:
		t.Fatal("cancelled waiter must not be woken")
	default:
	}
}

func TestCompareAndSetIgnoringOnce_ConsumesExactlyOnce(t *testing.T) {
	s := NewShardedStore()
	target := TopicPartitionTarget("orders", 0)
	s.Set(target, IgnoringOnce{})

	var wg sync.WaitGroup
	successes := make([]bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			successes[i] = compareAndSetIgnoringOnce(s, target)
		}(i)
	}
	wg.Wait()

	count := 0
	for _, ok := range successes {
		if ok {
			count++
		}
	}
	require.Equal(t, 1, count, "exactly one racer must consume the IgnoringOnce")
	require.IsType(t, Blocking{}, s.Get(target))
}

func TestCompareAndSetIgnoringOnce_DoesNotClobberIgnoringAll(t *testing.T) {
	s := NewShardedStore()
	target := TopicTarget("orders")
	s.Set(target, IgnoringAll{})

	consumed := compareAndSetIgnoringOnce(s, target)
	require.False(t, consumed)
	require.IsType(t, IgnoringAll{}, s.Get(target))
}

func TestShardedStore_UpdateAndGetIsAtomicPerTarget(t *testing.T) {
	s := NewShardedStore()
	target := TopicPartitionTarget("orders", 5)
	s.Set(target, IgnoringOnce{})

	var wg sync.WaitGroup
	hits := make(chan struct{}, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpdateAndGet(target, func(cur State) State {
				if _, ok := cur.(IgnoringOnce); ok {
					hits <- struct{}{}
					return Blocking{}
				}
				return cur
			})
		}()
	}
	wg.Wait()
	close(hits)

	n := 0
	for range hits {
		n++
	}
	require.Equal(t, 1, n)
}
