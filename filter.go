package treatz

import (
	"context"

	"github.com/zoobzio/treatz/rx"
)

// Filter passes only the elements for which keep returns true.
// Failures are never filtered.
//
// When to use:
//   - Remove invalid or unwanted elements
//   - Apply business rules before expensive downstream work
//
// Example:
//
//	// Keep large orders
//	large := treatz.Filter(orders, func(o Order) bool {
//		return o.Total > 1000
//	})
//
// Filtering a Single or a Maybe can drop its only element, so those shapes
// use FilterSingle and FilterMaybe, which return a Maybe.
func Filter[T any, F error](s Treatable[T, F], keep func(T) bool) Treatable[T, F] {
	return filter[ShapeContinuous](s, keep)
}

// FilterSingle keeps the element of a Single only if keep accepts it.
func FilterSingle[T any, F error](s Single[T, F], keep func(T) bool) Maybe[T, F] {
	return filter[ShapeMaybe](s, keep)
}

// FilterMaybe keeps the element of a Maybe only if keep accepts it.
func FilterMaybe[T any, F error](s Maybe[T, F], keep func(T) bool) Maybe[T, F] {
	return filter[ShapeMaybe](s, keep)
}

func filter[S2, S1 Shape, T any, F error](s Sequence[S1, T, F], keep func(T) bool) Sequence[S2, T, F] {
	return wrap[S2, T, F](rx.Filter(s.source, keep))
}

// FilterResult filters with a predicate that may fail. An Err terminates
// the sequence with its failure.
func FilterResult[T any, F error](s Treatable[T, F], keep func(T) Result[bool, F]) Treatable[T, F] {
	return CompactMapResult(s, func(v T) (Result[T, F], bool) {
		r := keep(v)
		if r.failed {
			return Err[T](r.failure), true
		}
		return Ok[T, F](v), r.value
	})
}

// FilterError decides which failures propagate. A failure rejected by keep
// is dropped and the sequence finishes normally instead.
func FilterError[T any, F error](s Treatable[T, F], keep func(F) bool) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) { e.Next(v) },
			OnError: func(err error) {
				f, cv := castFailure[F]("FilterError", err)
				switch {
				case cv != nil:
					e.Error(cv)
				case keep(f):
					e.Error(f)
				default:
					e.Complete()
				}
			},
			OnCompleted: e.Complete,
		})
	}))
}

// CompactMap transforms elements and drops those for which fn reports false.
func CompactMap[T, U any, F error](s Treatable[T, F], fn func(T) (U, bool)) Treatable[U, F] {
	return compactMap[ShapeContinuous](s, fn)
}

// CompactMapSingle transforms the element of a Single, dropping it when fn
// reports false.
func CompactMapSingle[T, U any, F error](s Single[T, F], fn func(T) (U, bool)) Maybe[U, F] {
	return compactMap[ShapeMaybe](s, fn)
}

func compactMap[S2, S1 Shape, T, U any, F error](s Sequence[S1, T, F], fn func(T) (U, bool)) Sequence[S2, U, F] {
	return wrap[S2, U, F](rx.Create(func(ctx context.Context, e *rx.Emitter[U]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				if u, ok := fn(v); ok {
					e.Next(u)
				}
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}

// CompactMapResult transforms elements with a function that may fail or
// drop the element. A kept Err terminates the sequence.
func CompactMapResult[T, U any, F error](s Treatable[T, F], fn func(T) (Result[U, F], bool)) Treatable[U, F] {
	return wrap[ShapeContinuous, U, F](rx.Create(func(ctx context.Context, e *rx.Emitter[U]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				r, ok := fn(v)
				switch {
				case !ok:
				case r.failed:
					fail("CompactMapResult", e, r.failure)
				default:
					e.Next(r.value)
				}
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}

// CompactMapCatching is CompactMap with a transform that may return an
// error, converted through mapErr.
func CompactMapCatching[T, U any, F error](s Treatable[T, F], fn func(T) (U, bool, error), mapErr func(error) F) Treatable[U, F] {
	return CompactMapResult(s, func(v T) (Result[U, F], bool) {
		u, ok, err := fn(v)
		if err != nil {
			return Err[U](mapErr(err)), true
		}
		return Ok[U, F](u), ok
	})
}
