package treatz

import (
	"context"

	"github.com/zoobzio/treatz/rx"
)

// Sequence is a stream of T whose only possible failure is an F.
// S fixes the cardinality contract. A Sequence is an immutable definition:
// operators return new sequences and every subscription is independent.
// The zero Sequence completes immediately.
type Sequence[S Shape, T any, F error] struct {
	source rx.Observable[T]
}

// Treatable emits zero or more elements, then finishes or fails with F.
type Treatable[T any, F error] = Sequence[ShapeContinuous, T, F]

// Single emits exactly one element or fails with F.
type Single[T any, F error] = Sequence[ShapeSingle, T, F]

// Maybe emits at most one element, then finishes, or fails with F.
type Maybe[T any, F error] = Sequence[ShapeMaybe, T, F]

// Completable emits no elements and only finishes or fails with F.
type Completable[F error] = Sequence[ShapeCompletable, Nothing, F]

// Observable converts the sequence back to the untyped engine. Failures
// surface as engine errors and can be recovered with FromObservableUnchecked.
func (s Sequence[S, T, F]) Observable() rx.Observable[T] {
	return s.source
}

func wrap[S Shape, T any, F error](o rx.Observable[T]) Sequence[S, T, F] {
	return Sequence[S, T, F]{source: o}
}

func relabel[S2, S1 Shape, T any, F error](s Sequence[S1, T, F]) Sequence[S2, T, F] {
	return Sequence[S2, T, F]{source: s.source}
}

// FromObservable lifts an untyped observable without restricting its errors.
func FromObservable[T any](o rx.Observable[T]) Treatable[T, error] {
	return wrap[ShapeContinuous, T, error](o)
}

// FromObservableMapError lifts an untyped observable, converting every error
// it terminates with through classify.
func FromObservableMapError[T any, F error](o rx.Observable[T], classify func(error) F) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		o.Subscribe(ctx, rx.Observer[T]{
			OnNext:      func(v T) { e.Next(v) },
			OnError:     func(err error) { fail("FromObservableMapError", e, classify(err)) },
			OnCompleted: e.Complete,
		})
	}))
}

// FromObservableUnchecked lifts an observable whose errors the caller
// guarantees to be of type F. Any other error is a *ContractViolation.
func FromObservableUnchecked[F error, T any](o rx.Observable[T]) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](checked[F]("FromObservableUnchecked", o))
}

// checked verifies every error of o against F, replacing mismatches with the
// reported violation.
func checked[F error, T any](operator string, o rx.Observable[T]) rx.Observable[T] {
	return rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		o.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) { e.Next(v) },
			OnError: func(err error) {
				f, cv := castFailure[F](operator, err)
				if cv != nil {
					e.Error(cv)
					return
				}
				e.Error(f)
			},
			OnCompleted: e.Complete,
		})
	})
}

// FromObservableOrReturn lifts an observable that can no longer fail: any
// error is replaced by emitting fallback and finishing.
func FromObservableOrReturn[T any](o rx.Observable[T], fallback T) Treatable[T, Infallible] {
	return wrap[ShapeContinuous, T, Infallible](rx.Catch(o, func(error) rx.Observable[T] {
		return rx.Just(fallback)
	}))
}

// FromObservableOrElse lifts an observable that can no longer fail: any
// error is handed to handler and the sequence continues with its result.
func FromObservableOrElse[T any](o rx.Observable[T], handler func(error) Treatable[T, Infallible]) Treatable[T, Infallible] {
	return wrap[ShapeContinuous, T, Infallible](rx.Catch(o, func(err error) rx.Observable[T] {
		return handler(err).source
	}))
}

// Emitter is the typed producer handle passed to Create.
type Emitter[T any, F error] struct {
	e *rx.Emitter[T]
}

// Next delivers a value and reports whether the subscription is still live.
func (e *Emitter[T, F]) Next(v T) bool {
	return e.e.Next(v)
}

// Fail terminates the sequence with f.
func (e *Emitter[T, F]) Fail(f F) {
	fail("Create", e.e, f)
}

// Complete finishes the sequence.
func (e *Emitter[T, F]) Complete() {
	e.e.Complete()
}

// Active reports whether events would still be delivered.
func (e *Emitter[T, F]) Active() bool {
	return e.e.Active()
}

// Create builds a Treatable from a producer. The producer runs once per
// subscription; ctx is canceled when the subscription ends.
func Create[T any, F error](produce func(ctx context.Context, e *Emitter[T, F])) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		produce(ctx, &Emitter[T, F]{e: e})
	}))
}

// Empty finishes without emitting.
func Empty[T any, F error]() Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Empty[T]())
}

// Never neither emits nor terminates.
func Never[T any, F error]() Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Never[T]())
}

// Just emits v and finishes.
func Just[T any, F error](v T) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Just(v))
}

// Of emits items in order and finishes.
func Of[T any, F error](items ...T) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.From(items...))
}

// Fail terminates immediately with f.
func Fail[T any, F error](f F) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](throw[T]("Fail", f))
}

// FromChannel emits every value received from ch and finishes when ch is closed.
func FromChannel[T any, F error](ch <-chan T) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.FromChannel(ch))
}

// Deferred calls factory once per subscription.
func Deferred[S Shape, T any, F error](factory func() Sequence[S, T, F]) Sequence[S, T, F] {
	return wrap[S, T, F](rx.Defer(func() rx.Observable[T] {
		return factory().source
	}))
}

// SingleJust resolves with v.
func SingleJust[T any, F error](v T) Single[T, F] {
	return wrap[ShapeSingle, T, F](rx.Just(v))
}

// SingleFail fails with f.
func SingleFail[T any, F error](f F) Single[T, F] {
	return wrap[ShapeSingle, T, F](throw[T]("SingleFail", f))
}

// SingleNever never resolves.
func SingleNever[T any, F error]() Single[T, F] {
	return wrap[ShapeSingle, T, F](rx.Never[T]())
}

// SingleCreate builds a Single from a producer that calls resolve once.
// Calls after the first are ignored.
func SingleCreate[T any, F error](produce func(ctx context.Context, resolve func(Result[T, F]))) Single[T, F] {
	return wrap[ShapeSingle, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		produce(ctx, func(r Result[T, F]) {
			if r.IsFailure() {
				fail("SingleCreate", e, r.failure)
				return
			}
			if e.Next(r.value) {
				e.Complete()
			}
		})
	}))
}

// MaybeJust resolves with v.
func MaybeJust[T any, F error](v T) Maybe[T, F] {
	return wrap[ShapeMaybe, T, F](rx.Just(v))
}

// MaybeEmpty finishes without a value.
func MaybeEmpty[T any, F error]() Maybe[T, F] {
	return wrap[ShapeMaybe, T, F](rx.Empty[T]())
}

// MaybeFail fails with f.
func MaybeFail[T any, F error](f F) Maybe[T, F] {
	return wrap[ShapeMaybe, T, F](throw[T]("MaybeFail", f))
}

// MaybeNever never terminates.
func MaybeNever[T any, F error]() Maybe[T, F] {
	return wrap[ShapeMaybe, T, F](rx.Never[T]())
}

// CompletableEmpty finishes immediately.
func CompletableEmpty[F error]() Completable[F] {
	return wrap[ShapeCompletable, Nothing, F](rx.Empty[Nothing]())
}

// CompletableFail fails with f.
func CompletableFail[F error](f F) Completable[F] {
	return wrap[ShapeCompletable, Nothing, F](throw[Nothing]("CompletableFail", f))
}

// CompletableNever never terminates.
func CompletableNever[F error]() Completable[F] {
	return wrap[ShapeCompletable, Nothing, F](rx.Never[Nothing]())
}

// CompletableCreate builds a Completable from a producer that calls done once.
func CompletableCreate[F error](produce func(ctx context.Context, done func(Completion[F]))) Completable[F] {
	return wrap[ShapeCompletable, Nothing, F](rx.Create(func(ctx context.Context, e *rx.Emitter[Nothing]) {
		produce(ctx, func(c Completion[F]) {
			if f, failed := c.Failure(); failed {
				fail("CompletableCreate", e, f)
				return
			}
			e.Complete()
		})
	}))
}
