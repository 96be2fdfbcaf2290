package treatz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/treatz/rx"
)

// Throttle emits the first element of every window of length d and drops
// the rest. With latest set, the last element dropped within a window is
// emitted when the window closes, and flushed if the source finishes first.
//
// When to use:
//   - Rate limiting noisy sensors or UI events
//   - Protecting downstream services from bursts
//
// Example:
//
//	// At most one position update per second, always ending on the newest
//	positions := gps.Throttle(time.Second, true, treatz.RealClock)
//
// Parameters:
//   - d: Window length
//   - latest: Emit the trailing element of each window
//   - clock: Clock driving the windows, nil for RealClock
func (s Sequence[S, T, F]) Throttle(d time.Duration, latest bool, clock Clock) Sequence[S, T, F] {
	clock = clockOr(clock)
	return wrap[S, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			mu         sync.Mutex
			lastEmit   time.Time
			emitted    bool
			pending    T
			hasPending bool
			timer      clockz.Timer
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

		flush := func() {
			mu.Lock()
			defer mu.Unlock()
			timer = nil
			if !hasPending {
				return
			}
			hasPending = false
			lastEmit = clock.Now()
			e.Next(pending)
		}

		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				mu.Lock()
				defer mu.Unlock()

				now := clock.Now()
				if !emitted || now.Sub(lastEmit) >= d {
					emitted = true
					lastEmit = now
					e.Next(v)
					return
				}
				if !latest {
					return
				}
				pending, hasPending = v, true
				if timer == nil {
					timer = afterFunc(clock, lastEmit.Add(d).Sub(now), flush)
				}
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
