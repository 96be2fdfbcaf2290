package treatz

import (
	"context"

	"github.com/zoobzio/treatz/rx"
)

// Take emits the first count elements and then finishes, disposing the
// source. A failure before count elements propagates unchanged.
//
// Example:
//
//	// First ten readings only
//	first := treatz.Take(readings, 10)
func Take[T any, F error](s Treatable[T, F], count int) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		if count <= 0 {
			e.Complete()
			return
		}
		taken := 0
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				taken++
				if e.Next(v) && taken >= count {
					e.Complete()
				}
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}

// TakeWhile emits elements while keep accepts them and finishes at the
// first rejected element.
func TakeWhile[T any, F error](s Treatable[T, F], keep func(T) bool) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				if !keep(v) {
					e.Complete()
					return
				}
				e.Next(v)
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}
