package treatz

import "fmt"

// Completion is the terminal outcome of a sequence: finished, or failed
// with an F.
type Completion[F error] struct {
	failure F
	failed  bool
}

// Finished is the normal completion.
func Finished[F error]() Completion[F] {
	return Completion[F]{}
}

// Failed is the completion carrying failure f.
func Failed[F error](f F) Completion[F] {
	return Completion[F]{failure: f, failed: true}
}

// Failure returns the failure and true if the sequence failed.
func (c Completion[F]) Failure() (F, bool) {
	return c.failure, c.failed
}

// IsFinished reports a normal completion.
func (c Completion[F]) IsFinished() bool {
	return !c.failed
}

func (c Completion[F]) String() string {
	if c.failed {
		return fmt.Sprintf("failure(%v)", c.failure)
	}
	return "finished"
}

// Event is one delivery of a subscription: either a next value or the
// terminal completion.
type Event[T any, F error] struct {
	value      T
	completion Completion[F]
	terminal   bool
}

// Next is the event carrying value v.
func Next[T any, F error](v T) Event[T, F] {
	return Event[T, F]{value: v}
}

// Completed is the terminal event carrying c.
func Completed[T any, F error](c Completion[F]) Event[T, F] {
	return Event[T, F]{completion: c, terminal: true}
}

// Value returns the element and true for a next event.
func (e Event[T, F]) Value() (T, bool) {
	return e.value, !e.terminal
}

// Completion returns the completion and true for the terminal event.
func (e Event[T, F]) Completion() (Completion[F], bool) {
	return e.completion, e.terminal
}

// IsTerminal reports whether this is the completion event.
func (e Event[T, F]) IsTerminal() bool {
	return e.terminal
}

func (e Event[T, F]) String() string {
	if e.terminal {
		return "completed(" + e.completion.String() + ")"
	}
	return fmt.Sprintf("next(%v)", e.value)
}
