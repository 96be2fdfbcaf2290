package treatz

import (
	"github.com/zoobzio/treatz/rx"
)

// Catch continues with the sequence returned by handler when s fails.
// The handler decides the new failure type, so recovering completely is
// expressed by returning a sequence that fails with Infallible.
//
// Example:
//
//	// Fall back to the cache when the origin fails
//	users := treatz.Catch(fetchUsers(), func(e FetchError) treatz.Treatable[User, CacheError] {
//		log.Printf("origin failed: %v", e)
//		return cachedUsers()
//	})
func Catch[S Shape, T any, F, G error](s Sequence[S, T, F], handler func(F) Sequence[S, T, G]) Sequence[S, T, G] {
	return wrap[S, T, G](rx.Catch(s.source, func(err error) rx.Observable[T] {
		f, cv := castFailure[F]("Catch", err)
		if cv != nil {
			return rx.Throw[T](cv)
		}
		return handler(f).source
	}))
}

// CatchAndReturn replaces any failure with fallback followed by completion.
// For a Completable the failure is replaced by completion alone.
func CatchAndReturn[S Shape, T any, F error](s Sequence[S, T, F], fallback T) Sequence[S, T, Infallible] {
	return Catch(s, func(F) Sequence[S, T, Infallible] {
		var shape S
		if _, ok := any(shape).(ShapeCompletable); ok {
			return wrap[S, T, Infallible](rx.Empty[T]())
		}
		return wrap[S, T, Infallible](rx.Just(fallback))
	})
}

// SetFailureType relabels a sequence that cannot fail with the failure type
// G, so it can be combined with sequences that can.
//
// Example:
//
//	ticks := treatz.SetFailureType[FetchError](treatz.Interval[treatz.Infallible](time.Second, nil))
func SetFailureType[G error, S Shape, T any](s Sequence[S, T, Infallible]) Sequence[S, T, G] {
	return wrap[S, T, G](s.source)
}
