// Package treatz adds a statically typed failure channel to push-based
// reactive streams.
//
// The untyped engine in package rx terminates a stream with an error of any
// type. A Sequence pairs an element type T with a failure type F and
// guarantees that the only failure a consumer can ever observe is an F,
// delivered exactly once through a Completion.
//
// Sequences come in four shapes that constrain cardinality:
//   - Treatable: zero or more elements (ShapeContinuous)
//   - Single: exactly one element or a failure (ShapeSingle)
//   - Maybe: at most one element or a failure (ShapeMaybe)
//   - Completable: no elements, only completion or failure (ShapeCompletable)
//
// Basic usage:
//
//	ctx := context.Background()
//
//	// Lift an untyped observable, classifying its errors.
//	orders := treatz.FromObservableMapError(raw, func(err error) OrderError {
//		return OrderError{Cause: err}
//	})
//
//	// Chain operators; each returns a new sequence.
//	totals := treatz.Map(orders, func(o Order) float64 { return o.Total })
//	big := treatz.Filter(totals, func(t float64) bool { return t > 100 })
//
//	// Consume with a discriminated completion.
//	sub := big.Treat(ctx,
//		func(total float64) { fmt.Println("total:", total) },
//		func(c treatz.Completion[OrderError]) {
//			if f, failed := c.Failure(); failed {
//				log.Printf("orders failed: %v", f)
//			}
//		},
//		nil,
//	)
//	defer sub.Dispose()
//
// Operators never unify failure types implicitly. Sources with different
// failure types must be brought to a common type with MapError before they
// are merged, zipped or concatenated.
package treatz

// ShapeContinuous marks sequences of zero or more elements.
type ShapeContinuous struct{}

// ShapeSingle marks sequences of exactly one element or a failure.
type ShapeSingle struct{}

// ShapeMaybe marks sequences of at most one element or a failure.
type ShapeMaybe struct{}

// ShapeCompletable marks sequences without elements.
type ShapeCompletable struct{}

// Shape is the closed set of cardinality contracts.
type Shape interface {
	ShapeContinuous | ShapeSingle | ShapeMaybe | ShapeCompletable
}

// ElementShape is every Shape that can carry elements. Element transforms are
// limited to it so that a Completable keeps its Nothing element type.
type ElementShape interface {
	ShapeContinuous | ShapeSingle | ShapeMaybe
}

// Infallible is the failure type of sequences that cannot fail.
// No type implements it, so the only value is nil.
type Infallible interface {
	error
	infallible()
}

// Nothing is the element type of Completable. No type implements it.
type Nothing interface {
	nothing()
}

func shapeName[S Shape]() string {
	var s S
	switch any(s).(type) {
	case ShapeSingle:
		return "single"
	case ShapeMaybe:
		return "maybe"
	case ShapeCompletable:
		return "completable"
	default:
		return "treatable"
	}
}

func isSingle[S Shape]() bool {
	var s S
	_, ok := any(s).(ShapeSingle)
	return ok
}
