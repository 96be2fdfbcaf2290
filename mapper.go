package treatz

import (
	"context"

	"github.com/zoobzio/treatz/rx"
)

// Map transforms every element of a sequence. The failure type, the shape
// and the cardinality are preserved; failures pass through unchanged.
//
// When to use:
//   - Type conversions between data representations
//   - Extracting fields or computing derived values
//   - Any element-wise transformation that cannot fail
//
// Example:
//
//	// Extract order totals
//	totals := treatz.Map(orders, func(o Order) float64 {
//		return o.Total
//	})
//
//	// Single stays Single
//	name := treatz.Map(treatz.SingleJust[User, LookupError](u), func(u User) string {
//		return u.Name
//	})
//
// Parameters:
//   - s: Source sequence
//   - fn: Pure transformation from T to U
//
// Returns a new sequence of the same shape and failure type. Completables
// carry no elements and are not accepted; use MapError or AndThen on them.
func Map[S ElementShape, T, U any, F error](s Sequence[S, T, F], fn func(T) U) Sequence[S, U, F] {
	return wrap[S, U, F](rx.Map(s.source, fn))
}

// MapCatching transforms every element with a function that may fail. The
// first error returned by fn is converted through mapErr and terminates the
// sequence; later upstream elements are not observed.
//
// Example:
//
//	parsed := treatz.MapCatching(lines, strconv.Atoi, func(err error) ParseError {
//		return ParseError{Cause: err}
//	})
func MapCatching[S ElementShape, T, U any, F error](s Sequence[S, T, F], fn func(T) (U, error), mapErr func(error) F) Sequence[S, U, F] {
	return MapResult(s, func(v T) Result[U, F] {
		u, err := fn(v)
		if err != nil {
			return Err[U](mapErr(err))
		}
		return Ok[U, F](u)
	})
}

// MapResult transforms every element into a Result. An Err terminates the
// sequence with its failure.
func MapResult[S ElementShape, T, U any, F error](s Sequence[S, T, F], fn func(T) Result[U, F]) Sequence[S, U, F] {
	return wrap[S, U, F](rx.Create(func(ctx context.Context, e *rx.Emitter[U]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				r := fn(v)
				if r.failed {
					fail("MapResult", e, r.failure)
					return
				}
				e.Next(r.value)
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}

// MapResults transforms the successful values of a sequence of Results,
// leaving Err elements untouched.
func MapResults[S ElementShape, T, U any, G, F error](s Sequence[S, Result[T, G], F], fn func(T) U) Sequence[S, Result[U, G], F] {
	return Map(s, func(r Result[T, G]) Result[U, G] {
		return MapOk(r, fn)
	})
}

// MapError converts the failure of a sequence to another type. Elements pass
// through untouched and fn runs at most once per subscription.
//
// MapError is how sources with different failure types are brought to a
// common type before they are combined:
//
//	merged := treatz.Merge(
//		treatz.MapError(users, func(e UserError) SyncError { return SyncError{Users: &e} }),
//		treatz.MapError(orders, func(e OrderError) SyncError { return SyncError{Orders: &e} }),
//	)
func MapError[S Shape, T any, F, G error](s Sequence[S, T, F], fn func(F) G) Sequence[S, T, G] {
	return wrap[S, T, G](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) { e.Next(v) },
			OnError: func(err error) {
				f, cv := castFailure[F]("MapError", err)
				if cv != nil {
					e.Error(cv)
					return
				}
				fail("MapError", e, fn(f))
			},
			OnCompleted: e.Complete,
		})
	}))
}
