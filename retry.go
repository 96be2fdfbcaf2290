package treatz

import (
	"context"
	crand "crypto/rand"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/zoobzio/treatz/rx"
)

// Retry resubscribes to the source after a failure, making at most attempts
// subscriptions in total including the first. The failure of the last
// attempt propagates. Values below one are treated as one.
//
// Example:
//
//	// Up to three tries at the flaky endpoint
//	body := fetch(url).Retry(3)
func (s Sequence[S, T, F]) Retry(attempts int) Sequence[S, T, F] {
	if attempts < 1 {
		attempts = 1
	}
	return wrap[S, T, F](retry(s.source, func(_ F, attempt int) (time.Duration, bool) {
		return 0, attempt < attempts
	}, nil))
}

// RetryWith resubscribes according to policy, waiting the policy's backoff
// between attempts.
func (s Sequence[S, T, F]) RetryWith(policy *RetryPolicy[F]) Sequence[S, T, F] {
	return wrap[S, T, F](retry(s.source, policy.next, policy.clock))
}

func retry[T any, F error](src rx.Observable[T], decide func(f F, attempt int) (time.Duration, bool), clock Clock) rx.Observable[T] {
	return rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			loop    serial
			attempt int
		)
		var subscribe func()
		subscribe = func() {
			loop.run(func() {
				attempt++
				src.Subscribe(ctx, rx.Observer[T]{
					OnNext: func(v T) { e.Next(v) },
					OnError: func(err error) {
						f, cv := castFailure[F]("Retry", err)
						if cv != nil {
							e.Error(cv)
							return
						}
						delay, again := decide(f, attempt)
						switch {
						case !again:
							e.Error(f)
						case delay <= 0:
							subscribe()
						default:
							// A disposed subscription makes the late resubscribe a no-op.
							afterFunc(clock, delay, subscribe)
						}
					},
					OnCompleted: e.Complete,
				})
			})
		}
		subscribe()
	})
}

// RetryPolicy describes how RetryWith paces and bounds resubscription.
// It is configured through its fluent methods and must not be modified
// while in use.
type RetryPolicy[F error] struct { //nolint:govet // logical field grouping preferred over memory optimization
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	withJitter  bool
	onFailure   func(F, int) bool // Custom retry logic: (failure, attempt) -> shouldRetry.
	clock       Clock
}

// NewRetryPolicy creates a policy with sensible defaults: 3 attempts,
// 100ms base delay doubling per retry up to 30s, with jitter.
//
// Example:
//
//	policy := treatz.NewRetryPolicy[APIError](treatz.RealClock).
//		MaxAttempts(5).
//		BaseDelay(50 * time.Millisecond).
//		OnFailure(func(e APIError, attempt int) bool {
//			return e.Temporary()
//		})
//	orders := fetchOrders().RetryWith(policy)
func NewRetryPolicy[F error](clock Clock) *RetryPolicy[F] {
	return &RetryPolicy[F]{
		clock:       clockOr(clock),
		maxAttempts: 3,
		baseDelay:   100 * time.Millisecond,
		maxDelay:    30 * time.Second,
		withJitter:  true,
	}
}

// MaxAttempts sets the total number of subscriptions, including the first.
func (p *RetryPolicy[F]) MaxAttempts(attempts int) *RetryPolicy[F] {
	if attempts < 1 {
		attempts = 1
	}
	p.maxAttempts = attempts
	return p
}

// BaseDelay sets the wait before the first retry.
func (p *RetryPolicy[F]) BaseDelay(delay time.Duration) *RetryPolicy[F] {
	if delay < 0 {
		delay = 0
	}
	p.baseDelay = delay
	return p
}

// MaxDelay caps the exponential backoff.
func (p *RetryPolicy[F]) MaxDelay(delay time.Duration) *RetryPolicy[F] {
	if delay < 0 {
		delay = 0
	}
	p.maxDelay = delay
	return p
}

// WithJitter scales each delay by a random factor between 0.5 and 1.0.
func (p *RetryPolicy[F]) WithJitter(enabled bool) *RetryPolicy[F] {
	p.withJitter = enabled
	return p
}

// OnFailure installs a classifier deciding whether a failure after the
// given attempt is worth retrying.
func (p *RetryPolicy[F]) OnFailure(fn func(F, int) bool) *RetryPolicy[F] {
	p.onFailure = fn
	return p
}

func (p *RetryPolicy[F]) next(f F, attempt int) (time.Duration, bool) {
	if attempt >= p.maxAttempts {
		return 0, false
	}
	if p.onFailure != nil && !p.onFailure(f, attempt) {
		return 0, false
	}
	return p.calculateDelay(attempt), true
}

// calculateDelay returns the wait before retry number attempt, starting at 1.
func (p *RetryPolicy[F]) calculateDelay(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt-1))

	if time.Duration(delay) > p.maxDelay {
		delay = float64(p.maxDelay)
	}

	if p.withJitter {
		n, err := crand.Int(crand.Reader, big.NewInt(500))
		if err != nil {
			n = big.NewInt(250)
		}
		jitter := 0.5 + float64(n.Int64())/1000.0 // 0.5 to 1.0.
		delay *= jitter
	}

	return time.Duration(delay)
}

// RetryWhen hands the failures of the source to handler and resubscribes
// each time the returned trigger emits. A failure of the trigger fails the
// result. Once the trigger has finished or stopped listening, the next
// failure of the source propagates.
//
// The failures sequence supports a single subscription.
//
// Example:
//
//	// Retry twice, each time after a second
//	resilient := treatz.RetryWhen(fetch(), func(failures treatz.Treatable[APIError, treatz.Infallible]) treatz.Treatable[APIError, APIError] {
//		return treatz.SetFailureType[APIError](treatz.Take(failures, 2).Delay(time.Second, nil))
//	})
func RetryWhen[S Shape, T, U any, F error](s Sequence[S, T, F], handler func(failures Treatable[F, Infallible]) Treatable[U, F]) Sequence[S, T, F] {
	return wrap[S, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			mu       sync.Mutex
			notify   *rx.Emitter[F]
			awaiting bool
			finished bool
			last     F
			loop     serial
		)

		failures := rx.Create(func(_ context.Context, fe *rx.Emitter[F]) {
			mu.Lock()
			notify = fe
			mu.Unlock()
		})

		subscribe := func() {
			loop.run(func() {
				s.source.Subscribe(ctx, rx.Observer[T]{
					OnNext: func(v T) { e.Next(v) },
					OnError: func(err error) {
						f, cv := castFailure[F]("RetryWhen", err)
						if cv != nil {
							e.Error(cv)
							return
						}
						mu.Lock()
						fe := notify
						done := finished
						awaiting, last = true, f
						mu.Unlock()
						if done || fe == nil || !fe.Next(f) {
							e.Error(f)
						}
					},
					OnCompleted: e.Complete,
				})
			})
		}

		handler(wrap[ShapeContinuous, F, Infallible](failures)).source.Subscribe(ctx, rx.Observer[U]{
			OnNext: func(U) {
				mu.Lock()
				resubscribe := awaiting
				awaiting = false
				mu.Unlock()
				if resubscribe {
					subscribe()
				}
			},
			OnError: e.Error,
			OnCompleted: func() {
				mu.Lock()
				finished = true
				pending, f := awaiting, last
				mu.Unlock()
				if pending {
					e.Error(f)
				}
			},
		})
		subscribe()
	}))
}
