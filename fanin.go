package treatz

import (
	"context"
	"sync"

	"github.com/zoobzio/treatz/rx"
)

// Merge interleaves the elements of all sources in arrival order.
// The first failure of any source fails the merge and disposes every other
// source. The merge finishes once all sources have finished.
//
// All sources share one failure type. Sources with different failure types
// are brought together with MapError first.
//
// When to use:
//   - Aggregating events from multiple services
//   - Collecting results from parallel workers
//   - Consolidating several feeds into one consumer
//
// Example:
//
//	// Merge regional order feeds
//	all := treatz.Merge(eu.Orders(), us.Orders(), apac.Orders())
//
//	sub := all.Treat(ctx, handleOrder, func(c treatz.Completion[FeedError]) {
//		if f, failed := c.Failure(); failed {
//			log.Printf("feed %s failed: %v", f.Region, f)
//		}
//	}, nil)
//
// Returns a Treatable regardless of the shape of the sources.
func Merge[S Shape, T any, F error](sources ...Sequence[S, T, F]) Treatable[T, F] {
	return MergeAll(Of[Sequence[S, T, F], F](sources...))
}

// MergeAll subscribes to every inner sequence as it arrives and merges their
// elements. A failure of the outer or of any inner sequence fails the result.
func MergeAll[S Shape, T any, F error](outer Treatable[Sequence[S, T, F], F]) Treatable[T, F] {
	return MergeAllLimit(outer, 0)
}

// MergeAllLimit is MergeAll with at most limit inner sequences subscribed at
// once. Further inner sequences wait in arrival order. A limit below one
// means unbounded.
func MergeAllLimit[S Shape, T any, F error](outer Treatable[Sequence[S, T, F], F], limit int) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](mergeAll(outer.source, limit))
}

func mergeAll[S Shape, T any, F error](outer rx.Observable[Sequence[S, T, F]], limit int) rx.Observable[T] {
	return rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			mu        sync.Mutex
			active    int
			outerDone bool
			queue     []Sequence[S, T, F]
		)

		var subscribe func(inner Sequence[S, T, F])
		subscribe = func(inner Sequence[S, T, F]) {
			inner.source.Subscribe(ctx, rx.Observer[T]{
				OnNext:  func(v T) { e.Next(v) },
				OnError: e.Error,
				OnCompleted: func() {
					mu.Lock()
					if len(queue) > 0 {
						next := queue[0]
						queue = queue[1:]
						mu.Unlock()
						subscribe(next)
						return
					}
					active--
					done := active == 0 && outerDone
					mu.Unlock()
					if done {
						e.Complete()
					}
				},
			})
		}

		outer.Subscribe(ctx, rx.Observer[Sequence[S, T, F]]{
			OnNext: func(inner Sequence[S, T, F]) {
				mu.Lock()
				if limit > 0 && active >= limit {
					queue = append(queue, inner)
					mu.Unlock()
					return
				}
				active++
				mu.Unlock()
				subscribe(inner)
			},
			OnError: e.Error,
			OnCompleted: func() {
				mu.Lock()
				outerDone = true
				done := active == 0
				mu.Unlock()
				if done {
					e.Complete()
				}
			},
		})
	})
}
