package treatz

import (
	"context"

	"github.com/zoobzio/treatz/rx"
)

// Skip drops the first count elements.
func Skip[T any, F error](s Treatable[T, F], count int) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		skipped := 0
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				if skipped < count {
					skipped++
					return
				}
				e.Next(v)
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}
