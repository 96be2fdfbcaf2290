package treatz

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/zoobzio/treatz/rx"
)

// Hooks are side effects attached to a sequence with Do. Any hook may be nil.
// A panicking hook is logged and does not break the sequence.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type Hooks[T any, F error] struct {
	// Name labels log output of recovered panics.
	Name string

	// OnSubscribe runs before the source is subscribed.
	OnSubscribe func()

	// OnNext runs before each element is forwarded.
	OnNext func(T)

	// OnFailure runs before a failure is forwarded.
	OnFailure func(F)

	// OnCompleted runs before a normal completion is forwarded.
	OnCompleted func()

	// OnDispose runs when the subscription is disposed before termination.
	OnDispose func()
}

// Do attaches side effects without altering the events of the sequence.
//
// When to use:
//   - Logging and tracing of elements and outcomes
//   - Releasing resources when a consumer goes away
//   - Test hooks observing subscription and disposal
//
// Example:
//
//	traced := orders.Do(treatz.Hooks[Order, OrderError]{
//		Name:      "orders",
//		OnNext:    func(o Order) { log.Printf("order %s", o.ID) },
//		OnFailure: func(e OrderError) { log.Printf("orders failed: %v", e) },
//	})
func (s Sequence[S, T, F]) Do(h Hooks[T, F]) Sequence[S, T, F] {
	name := h.Name
	if name == "" {
		name = "do"
	}
	return wrap[S, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var terminated atomic.Bool
		if h.OnDispose != nil {
			context.AfterFunc(ctx, func() {
				if !terminated.Load() {
					safely(name, h.OnDispose)
				}
			})
		}
		if h.OnSubscribe != nil {
			safely(name, h.OnSubscribe)
		}

		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				if h.OnNext != nil {
					safely(name, func() { h.OnNext(v) })
				}
				e.Next(v)
			},
			OnError: func(err error) {
				terminated.Store(true)
				if h.OnFailure != nil {
					if f, ok := err.(F); ok {
						safely(name, func() { h.OnFailure(f) })
					}
				}
				e.Error(err)
			},
			OnCompleted: func() {
				terminated.Store(true)
				if h.OnCompleted != nil {
					safely(name, h.OnCompleted)
				}
				e.Complete()
			},
		})
	}))
}

// Debug logs every event and the subscription lifecycle under identifier.
func (s Sequence[S, T, F]) Debug(identifier string) Sequence[S, T, F] {
	return s.Do(Hooks[T, F]{
		Name:        identifier,
		OnSubscribe: func() { log.Printf("treatz[%s]: subscribed", identifier) },
		OnNext:      func(v T) { log.Printf("treatz[%s]: next(%v)", identifier, v) },
		OnFailure:   func(f F) { log.Printf("treatz[%s]: failure(%v)", identifier, f) },
		OnCompleted: func() { log.Printf("treatz[%s]: finished", identifier) },
		OnDispose:   func() { log.Printf("treatz[%s]: disposed", identifier) },
	})
}

func safely(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("treatz[%s]: hook panicked: %v", name, r)
		}
	}()
	fn()
}
