package treatz

import (
	"context"
	"sync"

	"github.com/zoobzio/treatz/rx"
)

// CombineLatest emits combiner applied to the latest element of every source
// whenever any source emits, once every source has emitted at least once.
// The first failure of any source fails the result. It finishes when every
// source has finished, or as soon as a source finishes without ever emitting.
//
// Example:
//
//	// Recompute a quote whenever price or quantity changes
//	quote := treatz.CombineLatest([]treatz.Treatable[float64, FeedError]{price, quantity},
//		func(latest []float64) float64 {
//			return latest[0] * latest[1]
//		})
func CombineLatest[S Shape, T, U any, F error](sources []Sequence[S, T, F], combiner func([]T) U) Treatable[U, F] {
	return wrap[ShapeContinuous, U, F](rx.Create(func(ctx context.Context, e *rx.Emitter[U]) {
		if len(sources) == 0 {
			e.Complete()
			return
		}

		var (
			mu       sync.Mutex
			latest   = make([]T, len(sources))
			has      = make([]bool, len(sources))
			ready    int
			finished int
		)

		for i, src := range sources {
			src.source.Subscribe(ctx, rx.Observer[T]{
				OnNext: func(v T) {
					mu.Lock()
					defer mu.Unlock()

					latest[i] = v
					if !has[i] {
						has[i] = true
						ready++
					}
					if ready < len(sources) {
						return
					}
					snapshot := make([]T, len(latest))
					copy(snapshot, latest)
					e.Next(combiner(snapshot))
				},
				OnError: e.Error,
				OnCompleted: func() {
					mu.Lock()
					finished++
					end := finished == len(sources) || !has[i]
					mu.Unlock()
					if end {
						e.Complete()
					}
				},
			})
		}
	}))
}
