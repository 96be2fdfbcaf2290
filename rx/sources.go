package rx

import "context"

// Empty completes immediately without emitting.
func Empty[T any]() Observable[T] {
	return Create(func(_ context.Context, e *Emitter[T]) {
		e.Complete()
	})
}

// Never neither emits nor terminates.
func Never[T any]() Observable[T] {
	return Create(func(context.Context, *Emitter[T]) {})
}

// Just emits v and completes.
func Just[T any](v T) Observable[T] {
	return Create(func(_ context.Context, e *Emitter[T]) {
		if e.Next(v) {
			e.Complete()
		}
	})
}

// From emits items in order and completes.
func From[T any](items ...T) Observable[T] {
	return Create(func(_ context.Context, e *Emitter[T]) {
		for _, item := range items {
			if !e.Next(item) {
				return
			}
		}
		e.Complete()
	})
}

// Throw terminates immediately with err.
func Throw[T any](err error) Observable[T] {
	return Create(func(_ context.Context, e *Emitter[T]) {
		e.Error(err)
	})
}

// Defer calls factory for every subscription and subscribes to its result.
func Defer[T any](factory func() Observable[T]) Observable[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) {
		factory().Subscribe(ctx, Forward(e))
	})
}

// FromChannel emits every value received from ch and completes when ch is
// closed. Reading stops as soon as the subscription is disposed.
func FromChannel[T any](ch <-chan T) Observable[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-ch:
					if !ok {
						e.Complete()
						return
					}
					if !e.Next(v) {
						return
					}
				}
			}
		}()
	})
}
