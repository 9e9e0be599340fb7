// Package lazy provides a value that is built on first use by exactly one caller.
package lazy

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Value builds a T at most once. Concurrent first callers share one build.
// A failed build is not remembered, so the next call tries again.
type Value[T any] struct {
	build func(ctx context.Context) (T, error)

	group singleflight.Group
	mu    sync.RWMutex
	value T
	ready bool
}

// New returns a Value that calls build on first use
func New[T any](build func(ctx context.Context) (T, error)) *Value[T] {
	return &Value[T]{build: build}
}

// Get returns the built value, building it if needed. A caller whose ctx
// ends stops waiting; the build keeps running for the others.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	if val, ok := v.Peek(); ok {
		return val, nil
	}

	ch := v.group.DoChan("value", func() (any, error) {
		if val, ok := v.Peek(); ok {
			return val, nil
		}
		// The build is shared, so no single caller may cancel it.
		val, err := v.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.value = val
		v.ready = true
		v.mu.Unlock()
		return val, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		val, _ := res.Val.(T)
		return val, nil
	}
}

// Peek returns the value if it has been built
func (v *Value[T]) Peek() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value, v.ready
}

// Reset forgets the built value
func (v *Value[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	var zero T
	v.value = zero
	v.ready = false
}
