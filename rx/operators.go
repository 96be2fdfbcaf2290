package rx

import "context"

// Map applies fn to every value.
func Map[T, U any](o Observable[T], fn func(T) U) Observable[U] {
	return Create(func(ctx context.Context, e *Emitter[U]) {
		o.Subscribe(ctx, Observer[T]{
			OnNext:      func(v T) { e.Next(fn(v)) },
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	})
}

// Filter passes only the values for which keep returns true.
func Filter[T any](o Observable[T], keep func(T) bool) Observable[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) {
		o.Subscribe(ctx, Observer[T]{
			OnNext: func(v T) {
				if keep(v) {
					e.Next(v)
				}
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	})
}

// Catch continues with the observable returned by handler when o fails.
func Catch[T any](o Observable[T], handler func(error) Observable[T]) Observable[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) {
		o.Subscribe(ctx, Observer[T]{
			OnNext: func(v T) { e.Next(v) },
			OnError: func(err error) {
				handler(err).Subscribe(ctx, Forward(e))
			},
			OnCompleted: e.Complete,
		})
	})
}
