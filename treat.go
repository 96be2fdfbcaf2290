package treatz

import (
	"context"
	"sync"

	"github.com/zoobzio/treatz/rx"
)

// Subscription is the cancellation handle returned by every consumer.
// Dispose stops delivery without a completion; canceling the context passed
// at subscription has the same effect.
type Subscription = rx.Subscription

// Treat subscribes to the sequence. onNext receives every element,
// onCompleted receives exactly one Completion unless the subscription is
// disposed first, and onDisposed runs once when the subscription ends for
// any reason. Any callback may be nil.
func (s Sequence[S, T, F]) Treat(ctx context.Context, onNext func(T), onCompleted func(Completion[F]), onDisposed func()) *Subscription {
	return s.source.Subscribe(ctx, rx.Observer[T]{
		OnNext: onNext,
		OnError: func(err error) {
			f, cv := castFailure[F]("Treat", err)
			if cv != nil || onCompleted == nil {
				return
			}
			onCompleted(Failed(f))
		},
		OnCompleted: func() {
			if onCompleted != nil {
				onCompleted(Finished[F]())
			}
		},
		OnDisposed: onDisposed,
	})
}

// Subscribe delivers every event of the sequence to fn.
func (s Sequence[S, T, F]) Subscribe(ctx context.Context, fn func(Event[T, F])) *Subscription {
	return s.Treat(ctx,
		func(v T) { fn(Next[T, F](v)) },
		func(c Completion[F]) { fn(Completed[T](c)) },
		nil,
	)
}

// TreatSingle delivers the outcome of a Single as one Result.
// A Single that finishes without an element is a *ContractViolation.
func TreatSingle[T any, F error](ctx context.Context, s Single[T, F], fn func(Result[T, F])) *Subscription {
	var (
		mu  sync.Mutex
		got bool
	)
	return s.Treat(ctx,
		func(v T) {
			mu.Lock()
			first := !got
			got = true
			mu.Unlock()
			if first {
				fn(Ok[T, F](v))
			}
		},
		func(c Completion[F]) {
			if f, failed := c.Failure(); failed {
				fn(Err[T](f))
				return
			}
			mu.Lock()
			empty := !got
			mu.Unlock()
			if empty {
				report(&ContractViolation{Operator: "TreatSingle", Expected: "exactly one element", Err: ErrNoElements})
			}
		},
		nil,
	)
}

// Events bridges the sequence to a channel. The channel is closed after the
// terminal event or when the subscription ends. Delivery blocks until the
// receiver reads or ctx is canceled.
func (s Sequence[S, T, F]) Events(ctx context.Context) <-chan Event[T, F] {
	out := make(chan Event[T, F])
	var (
		mu     sync.Mutex
		closed bool
	)
	send := func(ev Event[T, F]) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}
	closeOut := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(out)
		}
	}

	go s.Treat(ctx,
		func(v T) { send(Next[T, F](v)) },
		func(c Completion[F]) { send(Completed[T](c)) },
		closeOut,
	)
	return out
}

// Collect subscribes and blocks until the sequence terminates, returning
// every element and the completion. It returns ctx.Err() when ctx is
// canceled first and ErrDisposed when the subscription ended without a
// completion.
func (s Sequence[S, T, F]) Collect(ctx context.Context) ([]T, Completion[F], error) {
	var (
		mu         sync.Mutex
		values     []T
		completion Completion[F]
		terminated bool
	)
	sub := s.Treat(ctx,
		func(v T) {
			mu.Lock()
			values = append(values, v)
			mu.Unlock()
		},
		func(c Completion[F]) {
			mu.Lock()
			completion = c
			terminated = true
			mu.Unlock()
		},
		nil,
	)
	<-sub.Done()

	mu.Lock()
	defer mu.Unlock()
	if !terminated {
		if err := ctx.Err(); err != nil {
			return values, completion, err
		}
		return values, completion, ErrDisposed
	}
	return values, completion, nil
}

// Get blocks until the Single resolves.
func Get[T any, F error](ctx context.Context, s Single[T, F]) (Result[T, F], error) {
	values, c, err := s.Collect(ctx)
	if err != nil {
		return Result[T, F]{}, err
	}
	if f, failed := c.Failure(); failed {
		return Err[T](f), nil
	}
	if len(values) == 0 {
		cv := &ContractViolation{Operator: "Get", Expected: "exactly one element", Err: ErrNoElements}
		report(cv)
		return Result[T, F]{}, cv
	}
	return Ok[T, F](values[0]), nil
}
