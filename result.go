package treatz

import (
	"context"
	"fmt"

	"github.com/zoobzio/treatz/rx"
)

// Result represents either a successful value or a typed failure.
// It is the element type of the result view of a sequence and the outcome
// delivered to Single consumers.
type Result[T any, F error] struct {
	value   T
	failure F
	failed  bool
}

// Ok creates a Result containing a successful value.
func Ok[T any, F error](v T) Result[T, F] {
	return Result[T, F]{value: v}
}

// Err creates a Result containing a failure.
func Err[T any, F error](f F) Result[T, F] {
	return Result[T, F]{failure: f, failed: true}
}

// IsSuccess returns true if this Result contains a successful value.
func (r Result[T, F]) IsSuccess() bool {
	return !r.failed
}

// IsFailure returns true if this Result contains a failure.
func (r Result[T, F]) IsFailure() bool {
	return r.failed
}

// Value returns the successful value.
// Panics if called on a Result containing a failure - always check IsSuccess() first.
func (r Result[T, F]) Value() T {
	if r.failed {
		panic("called Value() on Result containing a failure")
	}
	return r.value
}

// Failure returns the failure, or the zero F for a successful Result.
func (r Result[T, F]) Failure() F {
	return r.failure
}

// Get returns the value, the failure and whether the Result succeeded.
func (r Result[T, F]) Get() (T, F, bool) {
	return r.value, r.failure, !r.failed
}

// ValueOr returns the successful value if present, otherwise returns the fallback.
func (r Result[T, F]) ValueOr(fallback T) T {
	if r.failed {
		return fallback
	}
	return r.value
}

// Map applies a function to the value if this Result is successful.
// If this Result contains a failure, returns it unchanged.
func (r Result[T, F]) Map(fn func(T) T) Result[T, F] {
	if r.failed {
		return r
	}
	return Ok[T, F](fn(r.value))
}

// MapError applies a function to the failure if this Result failed.
func (r Result[T, F]) MapError(fn func(F) F) Result[T, F] {
	if !r.failed {
		return r
	}
	return Err[T](fn(r.failure))
}

// AndThen chains a computation that may itself fail.
func (r Result[T, F]) AndThen(fn func(T) Result[T, F]) Result[T, F] {
	if r.failed {
		return r
	}
	return fn(r.value)
}

func (r Result[T, F]) String() string {
	if r.failed {
		return fmt.Sprintf("err(%v)", r.failure)
	}
	return fmt.Sprintf("ok(%v)", r.value)
}

// MapOk converts the value of a successful Result to another type.
func MapOk[T, U any, F error](r Result[T, F], fn func(T) U) Result[U, F] {
	if r.failed {
		return Err[U](r.failure)
	}
	return Ok[U, F](fn(r.value))
}

// Results is the result view of the sequence: every element becomes Ok, a
// failure becomes one final Err followed by normal completion. The view
// never fails at the engine level except to carry a *ContractViolation.
func (s Sequence[S, T, F]) Results() rx.Observable[Result[T, F]] {
	return rx.Create(func(ctx context.Context, e *rx.Emitter[Result[T, F]]) {
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) { e.Next(Ok[T, F](v)) },
			OnError: func(err error) {
				f, cv := castFailure[F]("Results", err)
				if cv != nil {
					e.Error(cv)
					return
				}
				if e.Next(Err[T](f)) {
					e.Complete()
				}
			},
			OnCompleted: e.Complete,
		})
	})
}

// FromResults bridges errors-as-values into errors-as-termination. Every Ok
// is emitted; the first Err fails the sequence and stops consuming the
// source. An engine error from the source must already be an F.
func FromResults[T any, F error](o rx.Observable[Result[T, F]]) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		checked[F]("FromResults", o).Subscribe(ctx, rx.Observer[Result[T, F]]{
			OnNext: func(r Result[T, F]) {
				if r.failed {
					fail("FromResults", e, r.failure)
					return
				}
				e.Next(r.value)
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}
