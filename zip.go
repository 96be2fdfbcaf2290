package treatz

import (
	"context"
	"sync"

	"github.com/zoobzio/treatz/rx"
)

// Zip combines the elements of all sources by position: the Nth output is
// combiner applied to the Nth element of every source, indexed in source
// order. The first failure of any source fails the zip without further
// combination, and the zip finishes as soon as a finished source has no
// buffered elements left.
//
// Zipping Singles yields a Single. Zipping no sources yields combiner(nil)
// for a Single and finishes empty for every other shape.
//
// Example:
//
//	// Load a profile from three services at once
//	profile := treatz.Zip([]treatz.Single[Part, LoadError]{user, prefs, avatar},
//		func(parts []Part) Profile {
//			return assemble(parts[0], parts[1], parts[2])
//		})
func Zip[S Shape, T, U any, F error](sources []Sequence[S, T, F], combiner func([]T) U) Sequence[S, U, F] {
	return wrap[S, U, F](zip(sources, func(vs []T) Result[U, F] {
		return Ok[U, F](combiner(vs))
	}))
}

// ZipCatching is Zip with a combiner that may fail. An error from combiner
// is converted through mapErr and fails the whole zip.
func ZipCatching[S Shape, T, U any, F error](sources []Sequence[S, T, F], combiner func([]T) (U, error), mapErr func(error) F) Sequence[S, U, F] {
	return wrap[S, U, F](zip(sources, func(vs []T) Result[U, F] {
		u, err := combiner(vs)
		if err != nil {
			return Err[U](mapErr(err))
		}
		return Ok[U, F](u)
	}))
}

func zip[S Shape, T, U any, F error](sources []Sequence[S, T, F], combine func([]T) Result[U, F]) rx.Observable[U] {
	return rx.Create(func(ctx context.Context, e *rx.Emitter[U]) {
		if len(sources) == 0 {
			if isSingle[S]() {
				emitResult(e, combine(nil))
				return
			}
			e.Complete()
			return
		}

		var (
			mu     sync.Mutex
			queues = make([][]T, len(sources))
			done   = make([]bool, len(sources))
		)

		// exhausted reports whether no further tuple can form. Callers hold mu.
		exhausted := func() bool {
			for i := range queues {
				if done[i] && len(queues[i]) == 0 {
					return true
				}
			}
			return false
		}

		for i, src := range sources {
			src.source.Subscribe(ctx, rx.Observer[T]{
				OnNext: func(v T) {
					mu.Lock()
					defer mu.Unlock()

					queues[i] = append(queues[i], v)
					for _, q := range queues {
						if len(q) == 0 {
							return
						}
					}

					tuple := make([]T, len(queues))
					for j := range queues {
						tuple[j] = queues[j][0]
						queues[j] = queues[j][1:]
					}
					r := combine(tuple)
					if r.failed {
						fail("Zip", e, r.failure)
						return
					}
					e.Next(r.value)
					if exhausted() {
						e.Complete()
					}
				},
				OnError: e.Error,
				OnCompleted: func() {
					mu.Lock()
					done[i] = true
					end := exhausted()
					mu.Unlock()
					if end {
						e.Complete()
					}
				},
			})
		}
	})
}

func emitResult[U any, F error](e *rx.Emitter[U], r Result[U, F]) {
	if r.failed {
		fail("Zip", e, r.failure)
		return
	}
	if e.Next(r.value) {
		e.Complete()
	}
}
