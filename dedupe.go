package treatz

import (
	"context"
	"time"

	"github.com/zoobzio/treatz/rx"
)

// DistinctUntilChanged drops elements equal to their predecessor.
func DistinctUntilChanged[T comparable, F error](s Treatable[T, F]) Treatable[T, F] {
	return DistinctUntilChangedFunc(s, func(a, b T) bool { return a == b })
}

// DistinctUntilChangedFunc drops elements that equal reports as equal to
// their predecessor.
func DistinctUntilChangedFunc[T any, F error](s Treatable[T, F], equal func(a, b T) bool) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			last T
			have bool
		)
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				if have && equal(last, v) {
					return
				}
				last, have = v, true
				e.Next(v)
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}

// Distinct emits each element only the first time it is seen.
func Distinct[T comparable, F error](s Treatable[T, F]) Treatable[T, F] {
	return DistinctBy(s, func(v T) T { return v }, 0, nil)
}

// DistinctBy removes elements whose key has been seen within ttl.
// A ttl of zero remembers keys for the lifetime of the subscription.
//
// When to use:
//   - Suppressing duplicate deliveries from at-least-once sources
//   - Idempotent processing keyed by message or event ID
//
// Example:
//
//	// Drop repeated webhook deliveries seen within five minutes
//	unique := treatz.DistinctBy(hooks, func(h Webhook) string {
//		return h.DeliveryID
//	}, 5*time.Minute, treatz.RealClock)
//
// Parameters:
//   - key: Extracts the identity of an element
//   - ttl: How long a key is remembered, zero for forever
//   - clock: Clock used to age keys, nil for RealClock
func DistinctBy[T any, K comparable, F error](s Treatable[T, F], key func(T) K, ttl time.Duration, clock Clock) Treatable[T, F] {
	clock = clockOr(clock)
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		seen := newKeyWindow[K](ttl)
		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				if seen.admit(key(v), clock.Now()) {
					e.Next(v)
				}
			},
			OnError:     e.Error,
			OnCompleted: e.Complete,
		})
	}))
}

// keyWindow remembers when each key was last admitted. Expired keys are swept
// at most once per half ttl rather than on every element.
type keyWindow[K comparable] struct {
	ttl       time.Duration
	seen      map[K]time.Time
	lastSweep time.Time
}

func newKeyWindow[K comparable](ttl time.Duration) *keyWindow[K] {
	return &keyWindow[K]{ttl: ttl, seen: make(map[K]time.Time)}
}

// admit reports whether k is new or expired at now, recording it if so.
func (w *keyWindow[K]) admit(k K, now time.Time) bool {
	if last, exists := w.seen[k]; exists && (w.ttl <= 0 || now.Sub(last) <= w.ttl) {
		return false
	}
	if w.ttl > 0 {
		if w.lastSweep.IsZero() {
			w.lastSweep = now
		} else if now.Sub(w.lastSweep) >= w.ttl/2 {
			w.sweep(now)
		}
	}
	w.seen[k] = now
	return true
}

func (w *keyWindow[K]) sweep(now time.Time) {
	w.lastSweep = now
	for k, last := range w.seen {
		if now.Sub(last) > w.ttl {
			delete(w.seen, k)
		}
	}
}
