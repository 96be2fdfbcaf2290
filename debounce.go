package treatz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/treatz/rx"
)

// Debounce emits an element only after d has passed without another element
// arriving. A pending element is flushed when the source finishes; a
// failure discards it.
//
// When to use:
//   - Search-as-you-type and other bursty user input
//   - Coalescing configuration or file change notifications
//   - Waiting for a value to settle before acting on it
//
// Example:
//
//	// Act on the window size once resizing stops
//	settled := sizes.Debounce(250*time.Millisecond, treatz.RealClock)
//
// Parameters:
//   - d: Quiet period required before emitting
//   - clock: Clock driving the timers, nil for RealClock
func (s Sequence[S, T, F]) Debounce(d time.Duration, clock Clock) Sequence[S, T, F] {
	clock = clockOr(clock)
	return wrap[S, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			mu         sync.Mutex
			timer      clockz.Timer
			pending    T
			hasPending bool
			gen        int
		)

		stop := func() {
			if timer != nil {
				timer.Stop()
				timer = nil
			}
		}
		context.AfterFunc(ctx, func() {
			mu.Lock()
			defer mu.Unlock()
			stop()
		})

		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				mu.Lock()
				defer mu.Unlock()

				pending, hasPending = v, true
				gen++
				id := gen
				stop()
				timer = afterFunc(clock, d, func() {
					mu.Lock()
					defer mu.Unlock()
					if id != gen || !hasPending {
						return
					}
					hasPending = false
					timer = nil
					e.Next(pending)
				})
			},
			OnError: func(err error) {
				mu.Lock()
				stop()
				hasPending = false
				mu.Unlock()
				e.Error(err)
			},
			OnCompleted: func() {
				mu.Lock()
				stop()
				if hasPending {
					hasPending = false
					e.Next(pending)
				}
				mu.Unlock()
				e.Complete()
			},
		})
	}))
}
