package treatz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/treatz/rx"
)

// Delay shifts every element and the completion later by d. Failures are
// delivered immediately and discard elements still in flight.
//
// Parameters:
//   - d: How long each event is held back
//   - clock: Clock driving the timers, nil for RealClock
func (s Sequence[S, T, F]) Delay(d time.Duration, clock Clock) Sequence[S, T, F] {
	clock = clockOr(clock)
	return wrap[S, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		type pending struct {
			value T
			done  bool
		}
		var (
			mu     sync.Mutex
			queue  []pending
			timers []clockz.Timer
		)

		// Timers fire in goroutines of their own, so each pops the head of
		// the queue rather than its own event.
		pop := func() {
			mu.Lock()
			defer mu.Unlock()
			if len(queue) == 0 {
				return
			}
			head := queue[0]
			queue = queue[1:]
			timers = timers[1:]
			if head.done {
				e.Complete()
				return
			}
			e.Next(head.value)
		}
		push := func(p pending) {
			mu.Lock()
			defer mu.Unlock()
			queue = append(queue, p)
			timers = append(timers, afterFunc(clock, d, pop))
		}

		context.AfterFunc(ctx, func() {
			mu.Lock()
			defer mu.Unlock()
			for _, t := range timers {
				t.Stop()
			}
			queue, timers = nil, nil
		})

		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) { push(pending{value: v}) },
			OnError: func(err error) {
				mu.Lock()
				for _, t := range timers {
					t.Stop()
				}
				queue, timers = nil, nil
				mu.Unlock()
				e.Error(err)
			},
			OnCompleted: func() { push(pending{done: true}) },
		})
	}))
}

// DelaySubscription subscribes to the source only after d has elapsed.
func (s Sequence[S, T, F]) DelaySubscription(d time.Duration, clock Clock) Sequence[S, T, F] {
	clock = clockOr(clock)
	return wrap[S, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		t := afterFunc(clock, d, func() {
			s.source.Subscribe(ctx, rx.Forward(e))
		})
		context.AfterFunc(ctx, func() { t.Stop() })
	}))
}
