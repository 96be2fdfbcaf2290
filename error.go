package treatz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"

	"github.com/zoobzio/treatz/rx"
)

var (
	// ErrNoElements is handed to cardinality mappers when a sequence that
	// must produce an element completes without one.
	ErrNoElements = errors.New("sequence completed without elements")

	// ErrMoreThanOneElement is handed to cardinality mappers when a sequence
	// produces a second element where at most one is allowed.
	ErrMoreThanOneElement = errors.New("sequence emitted more than one element")

	// ErrDisposed is returned by blocking consumers when the subscription
	// ended without a terminal event.
	ErrDisposed = errors.New("subscription disposed before termination")
)

// ContractViolation reports that a sequence broke its declared contract,
// typically by failing with an error that is not of its Failure type.
// It is a programming error: in the default build it panics at the point of
// detection, with the treatz_release build tag it is logged instead.
//
//nolint:govet // fieldalignment: struct layout optimized for readability
type ContractViolation struct {
	// Operator names the boundary that detected the violation.
	Operator string

	// Expected describes what the contract promised.
	Expected string

	// Err is what the sequence actually produced.
	Err error
}

func (v *ContractViolation) Error() string {
	return fmt.Sprintf("treatz[%s]: sequence produced %T (%v), expected %s", v.Operator, v.Err, v.Err, v.Expected)
}

// Unwrap returns the offending error.
func (v *ContractViolation) Unwrap() error {
	return v.Err
}

// castFailure recovers a typed failure from an engine error. On mismatch it
// reports a violation and returns it so callers can forward it untyped.
func castFailure[F error](operator string, err error) (F, error) {
	var zero F
	if cv, ok := err.(*ContractViolation); ok {
		// Already reported upstream.
		return zero, cv
	}
	if f, ok := err.(F); ok {
		return f, nil
	}

	var cv *ContractViolation
	if errors.As(err, &cv) {
		return zero, cv
	}

	cv = &ContractViolation{
		Operator: operator,
		Expected: "failure type " + typeName[F](),
		Err:      err,
	}
	report(cv)
	return zero, cv
}

// fail terminates e with the typed failure f. A nil failure would reach the
// engine as a normal completion, so it is reported as a violation instead.
func fail[T any, F error](operator string, e *rx.Emitter[T], f F) {
	if any(f) == nil {
		cv := &ContractViolation{
			Operator: operator,
			Expected: "a non-nil failure of type " + typeName[F](),
		}
		report(cv)
		e.Error(cv)
		return
	}
	e.Error(f)
}

// throw is a source failing with f, checked like fail.
func throw[T any, F error](operator string, f F) rx.Observable[T] {
	return rx.Create(func(_ context.Context, e *rx.Emitter[T]) {
		fail(operator, e, f)
	})
}

func report(cv *ContractViolation) {
	if strictContracts {
		panic(cv)
	}
	log.Printf("%v", cv)
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
