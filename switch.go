package treatz

import (
	"context"
	"sync"

	"github.com/zoobzio/treatz/rx"
)

// SwitchLatest mirrors the most recent inner sequence, disposing the
// previous one whenever a new one arrives. A failure of the outer sequence
// or of the current inner sequence fails the result. The result finishes
// once the outer sequence and the current inner sequence have finished.
//
// Example:
//
//	// Search as the user types, abandoning stale queries
//	results := treatz.SwitchLatest(treatz.Map(queries, search))
func SwitchLatest[S Shape, T any, F error](outer Treatable[Sequence[S, T, F], F]) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			mu          sync.Mutex
			gen         int
			cancel      context.CancelFunc
			innerActive bool
			outerDone   bool
		)

		outer.source.Subscribe(ctx, rx.Observer[Sequence[S, T, F]]{
			OnNext: func(inner Sequence[S, T, F]) {
				mu.Lock()
				if cancel != nil {
					cancel()
				}
				gen++
				id := gen
				innerCtx, innerCancel := context.WithCancel(ctx)
				cancel = innerCancel
				innerActive = true
				mu.Unlock()

				inner.source.Subscribe(innerCtx, rx.Observer[T]{
					OnNext: func(v T) {
						mu.Lock()
						defer mu.Unlock()
						if id == gen {
							e.Next(v)
						}
					},
					OnError: func(err error) {
						mu.Lock()
						defer mu.Unlock()
						if id == gen {
							e.Error(err)
						}
					},
					OnCompleted: func() {
						mu.Lock()
						current := id == gen
						if current {
							innerActive = false
						}
						done := current && outerDone
						mu.Unlock()
						if done {
							e.Complete()
						}
					},
				})
			},
			OnError: e.Error,
			OnCompleted: func() {
				mu.Lock()
				outerDone = true
				done := !innerActive
				mu.Unlock()
				if done {
					e.Complete()
				}
			},
		})
	}))
}

// FlatMapLatest maps every element to an inner sequence and mirrors only
// the most recent one.
func FlatMapLatest[S Shape, T, U any, F error](s Treatable[T, F], fn func(T) Sequence[S, U, F]) Treatable[U, F] {
	return SwitchLatest(Map(s, fn))
}

// FlatMapFirst maps an element to an inner sequence only while no inner
// sequence is active; elements arriving meanwhile are dropped.
func FlatMapFirst[S Shape, T, U any, F error](s Treatable[T, F], fn func(T) Sequence[S, U, F]) Treatable[U, F] {
	return wrap[ShapeContinuous, U, F](rx.Create(func(ctx context.Context, e *rx.Emitter[U]) {
		var (
			mu          sync.Mutex
			innerActive bool
			outerDone   bool
		)

		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				mu.Lock()
				if innerActive {
					mu.Unlock()
					return
				}
				innerActive = true
				mu.Unlock()

				fn(v).source.Subscribe(ctx, rx.Observer[U]{
					OnNext:  func(u U) { e.Next(u) },
					OnError: e.Error,
					OnCompleted: func() {
						mu.Lock()
						innerActive = false
						done := outerDone
						mu.Unlock()
						if done {
							e.Complete()
						}
					},
				})
			},
			OnError: e.Error,
			OnCompleted: func() {
				mu.Lock()
				outerDone = true
				done := !innerActive
				mu.Unlock()
				if done {
					e.Complete()
				}
			},
		})
	}))
}
