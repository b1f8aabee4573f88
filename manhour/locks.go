package manhour

import (
	"context"
	"sync"

	"github.com/warp/manhour-engine/generic"
)

// KeyedLocker serializes work per employee/day. Entries are reference
// counted and removed once nobody holds or waits on them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedEntry)}
}

func unitKey(key generic.EmployeeKey, date generic.Date) string {
	return string(key) + "|" + date.String()
}

// Lock blocks until the employee/day is free and returns the release func.
func (l *KeyedLocker) Lock(key generic.EmployeeKey, date generic.Date) func() {
	k := unitKey(key, date)

	l.mu.Lock()
	e, ok := l.locks[k]
	if !ok {
		e = &keyedEntry{}
		l.locks[k] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, k)
		}
		l.mu.Unlock()
	}
}

// Len reports how many keys are currently held or awaited.
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// runPool calls fn for every job with at most workers in flight. It stops
// handing out new jobs once ctx is done.
func runPool[T any](ctx context.Context, workers int, jobs []T, fn func(context.Context, T)) {
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, job := range jobs {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(j T) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, j)
		}(job)
	}
	wg.Wait()
}
