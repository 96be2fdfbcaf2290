package treatz

import "github.com/zoobzio/treatz/rx"

// FlatMap maps every element to an inner sequence and merges the inner
// sequences. The first failure of the source or of any inner sequence
// fails the result and disposes the rest.
//
// Example:
//
//	// Fetch details for every order ID concurrently
//	details := treatz.FlatMap(orderIDs, func(id string) treatz.Single[Order, FetchError] {
//		return client.FetchOrder(id)
//	})
func FlatMap[S Shape, T, U any, F error](s Treatable[T, F], fn func(T) Sequence[S, U, F]) Treatable[U, F] {
	return MergeAll(Map(s, fn))
}

// FlatMapLimit is FlatMap with at most limit inner sequences active at once.
func FlatMapLimit[S Shape, T, U any, F error](s Treatable[T, F], limit int, fn func(T) Sequence[S, U, F]) Treatable[U, F] {
	return MergeAllLimit(Map(s, fn), limit)
}

// SingleFlatMap continues a Single with the sequence derived from its
// element. The result has the shape of the derived sequence.
func SingleFlatMap[S Shape, T, U any, F error](s Single[T, F], fn func(T) Sequence[S, U, F]) Sequence[S, U, F] {
	return wrap[S, U, F](mergeAll(rx.Map(s.source, fn), 0))
}

// MaybeFlatMap continues a Maybe with the Maybe derived from its element.
// An empty Maybe finishes without calling fn.
func MaybeFlatMap[T, U any, F error](s Maybe[T, F], fn func(T) Maybe[U, F]) Maybe[U, F] {
	return wrap[ShapeMaybe, U, F](mergeAll(rx.Map(s.source, fn), 0))
}
