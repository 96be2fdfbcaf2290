package treatz

import (
	"context"

	"github.com/zoobzio/treatz/rx"
)

// AsSingle requires exactly one element. Finishing without an element or
// emitting a second one fails with cardinality(ErrNoElements) or
// cardinality(ErrMoreThanOneElement); the second case disposes the source.
func AsSingle[T any, F error](s Treatable[T, F], cardinality func(error) F) Single[T, F] {
	return wrap[ShapeSingle, T, F](atMostOne(s.source, cardinality, true))
}

// AsMaybe requires at most one element. A second element fails with
// cardinality(ErrMoreThanOneElement) and disposes the source.
func AsMaybe[T any, F error](s Treatable[T, F], cardinality func(error) F) Maybe[T, F] {
	return wrap[ShapeMaybe, T, F](atMostOne(s.source, cardinality, false))
}

func atMostOne[T any, F error](o rx.Observable[T], cardinality func(error) F, required bool) rx.Observable[T] {
	operator := "AsMaybe"
	if required {
		operator = "AsSingle"
	}
	return rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			element T
			have    bool
		)
		o.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				if have {
					fail(operator, e, cardinality(ErrMoreThanOneElement))
					return
				}
				element, have = v, true
			},
			OnError: e.Error,
			OnCompleted: func() {
				switch {
				case have:
					if e.Next(element) {
						e.Complete()
					}
				case required:
					fail(operator, e, cardinality(ErrNoElements))
				default:
					e.Complete()
				}
			},
		})
	})
}

// First emits the first element and finishes, disposing the source.
func First[T any, F error](s Treatable[T, F]) Maybe[T, F] {
	return relabel[ShapeMaybe](Take(s, 1))
}

// IgnoreElements drops every element and keeps only the outcome.
func IgnoreElements[S Shape, T any, F error](s Sequence[S, T, F]) Completable[F] {
	return wrap[ShapeCompletable, Nothing, F](rx.Create(func(ctx context.Context, e *rx.Emitter[Nothing]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}

// SingleAsMaybe widens a Single to a Maybe.
func SingleAsMaybe[T any, F error](s Single[T, F]) Maybe[T, F] {
	return relabel[ShapeMaybe](s)
}

// SingleAsCompletable discards the element of a Single.
func SingleAsCompletable[T any, F error](s Single[T, F]) Completable[F] {
	return IgnoreElements(s)
}

// MaybeAsCompletable discards the element of a Maybe.
func MaybeAsCompletable[T any, F error](s Maybe[T, F]) Completable[F] {
	return IgnoreElements(s)
}

// AsTreatable drops the cardinality guarantee of any shape.
func AsTreatable[S Shape, T any, F error](s Sequence[S, T, F]) Treatable[T, F] {
	return relabel[ShapeContinuous](s)
}

// AndThen runs next after c finishes. A failure of c skips next.
func AndThen[S Shape, T any, F error](c Completable[F], next Sequence[S, T, F]) Sequence[S, T, F] {
	return wrap[S, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		c.source.Subscribe(ctx, rx.Observer[Nothing]{
			OnError: e.Error,
			OnCompleted: func() {
				next.source.Subscribe(ctx, rx.Forward(e))
			},
		})
	}))
}
