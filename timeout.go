package treatz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/treatz/rx"
)

// Timeout switches to other when the source has not emitted for d, counted
// from subscription and restarted after every element. The source is
// disposed at expiry.
//
// Example:
//
//	// Serve the cached quote if the live one takes longer than 200ms
//	quote := live.Timeout(200*time.Millisecond, cached, treatz.RealClock)
func (s Sequence[S, T, F]) Timeout(d time.Duration, other Sequence[S, T, F], clock Clock) Sequence[S, T, F] {
	return wrap[S, T, F](timeout(s.source, d, other.source, clockOr(clock)))
}

// TimeoutFailure fails with f when the source has not emitted for d,
// counted from subscription and restarted after every element.
//
// Example:
//
//	reply := request.TimeoutFailure(5*time.Second, RPCError{Code: DeadlineExceeded}, nil)
func (s Sequence[S, T, F]) TimeoutFailure(d time.Duration, f F, clock Clock) Sequence[S, T, F] {
	return wrap[S, T, F](timeout(s.source, d, throw[T]("TimeoutFailure", f), clockOr(clock)))
}

func timeout[T any](src rx.Observable[T], d time.Duration, other rx.Observable[T], clock Clock) rx.Observable[T] {
	return rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		srcCtx, cancelSrc := context.WithCancel(ctx)
		var (
			mu       sync.Mutex
			gen      int
			timedOut bool
			timer    clockz.Timer
		)

		// arm restarts the countdown. Callers hold mu.
		arm := func() {
			gen++
			id := gen
			if timer != nil {
				timer.Stop()
			}
			timer = afterFunc(clock, d, func() {
				mu.Lock()
				if id != gen || timedOut {
					mu.Unlock()
					return
				}
				timedOut = true
				mu.Unlock()

				cancelSrc()
				other.Subscribe(ctx, rx.Forward(e))
			})
		}
		disarm := func() bool {
			mu.Lock()
			defer mu.Unlock()
			if timedOut {
				return false
			}
			gen++
			if timer != nil {
				timer.Stop()
			}
			return true
		}

		mu.Lock()
		arm()
		mu.Unlock()
		context.AfterFunc(ctx, func() {
			disarm()
			cancelSrc()
		})

		src.Subscribe(srcCtx, rx.Observer[T]{
			OnNext: func(v T) {
				mu.Lock()
				defer mu.Unlock()
				if timedOut {
					return
				}
				arm()
				e.Next(v)
			},
			OnError: func(err error) {
				if disarm() {
					e.Error(err)
				}
			},
			OnCompleted: func() {
				if disarm() {
					e.Complete()
				}
			},
		})
	})
}
