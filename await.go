package agentics

import (
	"context"
	"reflect"
)

// Awaitable is a deferred tool result. The executor calls Await synchronously so the
// tool loop never exposes partial results.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Future is an Awaitable computed on its own goroutine. Create it with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn on a new goroutine and returns a Future for its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn()
	}()
	return f
}

// Await blocks until the result is ready or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// maxAwaitDepth bounds chains of deferred values resolving to further deferred values.
const maxAwaitDepth = 8

// await resolves v while it is deferred: an Awaitable, or a receive channel (one value is
// received; a closed channel yields nil; an error element is returned as the error).
func await(ctx context.Context, v any) (any, error) {
	for range maxAwaitDepth {
		switch d := v.(type) {
		case Awaitable:
			res, err := d.Await(ctx)
			if err != nil {
				return nil, err
			}
			v = res
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Chan || rv.Type().ChanDir()&reflect.RecvDir == 0 || rv.IsNil() {
			return v, nil
		}
		chosen, recv, ok := reflect.Select([]reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
			{Dir: reflect.SelectRecv, Chan: rv},
		})
		if chosen == 0 {
			return nil, ctx.Err()
		}
		if !ok {
			return nil, nil
		}
		if rv.Type().Elem() == errorType {
			if recv.IsNil() {
				return nil, nil
			}
			return nil, recv.Interface().(error)
		}
		v = recv.Interface()
	}
	return v, nil
}
