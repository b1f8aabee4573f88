package manhour

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/manhour-engine/generic"
)

func TestKeyedLocker_SerializesSameKey(t *testing.T) {
	l := NewKeyedLocker()
	d := generic.NewDate(2024, time.March, 4)

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := l.Lock("E1", d)
			defer release()
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside.Load())
	assert.Zero(t, l.Len(), "entries are dropped once released")
}

func TestKeyedLocker_DifferentKeysIndependent(t *testing.T) {
	l := NewKeyedLocker()
	d := generic.NewDate(2024, time.March, 4)

	releaseA := l.Lock("E1", d)
	acquired := make(chan struct{})
	go func() {
		release := l.Lock("E1", d.AddDays(1))
		release()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock on another day blocked")
	}
	releaseA()
	assert.Zero(t, l.Len())
}

func TestRunPool_RunsEveryJobWithinBound(t *testing.T) {
	jobs := make([]int, 50)
	for i := range jobs {
		jobs[i] = i
	}

	var done, inflight, peak atomic.Int32
	runPool(context.Background(), 3, jobs, func(_ context.Context, _ int) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		inflight.Add(-1)
		done.Add(1)
	})

	assert.EqualValues(t, 50, done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunPool_CancelledContext_StopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var done atomic.Int32
	runPool(ctx, 2, []int{1, 2, 3, 4}, func(context.Context, int) { done.Add(1) })

	assert.Zero(t, done.Load())
}
