package refdata

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces a reference value
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Lazy holds a value loaded at most once. Concurrent first calls share a
// single in-flight load; later calls return the cached value without
// suspending. A failed load is not cached, so the next call retries.
type Lazy[T any] struct {
	load  LoadFunc[T]
	group singleflight.Group

	mu     sync.RWMutex
	value  T
	loaded bool
}

// NewLazy wraps a load function
func NewLazy[T any](load LoadFunc[T]) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Get returns the cached value, loading it on first use. Each caller waits
// under its own ctx; the shared load is detached from any single caller's
// cancellation.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if v, ok := l.cached(); ok {
		return v, nil
	}

	ch := l.group.DoChan("load", func() (interface{}, error) {
		if v, ok := l.cached(); ok {
			return v, nil
		}
		v, err := l.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.value = v
		l.loaded = true
		l.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Loaded reports whether the value is cached
func (l *Lazy[T]) Loaded() bool {
	_, ok := l.cached()
	return ok
}

func (l *Lazy[T]) cached() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.loaded
}
