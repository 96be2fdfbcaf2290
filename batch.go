package treatz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/treatz/rx"
)

// BatchConfig bounds the batches emitted by Batch.
type BatchConfig struct {
	// MaxSize emits a batch once it holds this many elements. Zero means
	// no size limit.
	MaxSize int

	// MaxLatency emits a batch this long after its first element arrived.
	// Zero means no time limit.
	MaxLatency time.Duration
}

// Batch groups elements into slices, emitting a batch when either the size
// limit is reached OR the latency limit expires, whichever comes first.
// A partial batch is emitted when the source finishes and discarded when
// it fails.
//
// When to use:
//   - Optimizing database writes with bulk operations
//   - Reducing API calls by batching requests
//   - Micro-batching for stream processing
//
// Example:
//
//	// Batch up to 1000 events or 5 seconds, whichever comes first
//	batches := treatz.Batch(events, treatz.BatchConfig{
//		MaxSize:    1000,
//		MaxLatency: 5 * time.Second,
//	}, treatz.RealClock)
//
// Parameters:
//   - config: Size and latency limits, at least one of which must be set
//   - clock: Clock driving the latency limit, nil for RealClock
func Batch[T any, F error](s Treatable[T, F], config BatchConfig, clock Clock) Treatable[[]T, F] {
	clock = clockOr(clock)
	return wrap[ShapeContinuous, []T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[[]T]) {
		var (
			mu    sync.Mutex
			batch []T
			gen   int
			timer clockz.Timer
		)

		// flush emits the current batch. Callers hold mu.
		flush := func() {
			if timer != nil {
				timer.Stop()
				timer = nil
			}
			gen++
			if len(batch) == 0 {
				return
			}
			out := batch
			batch = nil
			e.Next(out)
		}
		context.AfterFunc(ctx, func() {
			mu.Lock()
			defer mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
		})

		s.source.Subscribe(ctx, rx.Observer[T]{
			OnNext: func(v T) {
				mu.Lock()
				defer mu.Unlock()

				batch = append(batch, v)
				if config.MaxSize > 0 && len(batch) >= config.MaxSize {
					flush()
					return
				}
				if len(batch) == 1 && config.MaxLatency > 0 {
					id := gen
					timer = afterFunc(clock, config.MaxLatency, func() {
						mu.Lock()
						defer mu.Unlock()
						if id == gen {
							flush()
						}
					})
				}
			},
			OnError: func(err error) {
				mu.Lock()
				gen++
				batch = nil
				mu.Unlock()
				e.Error(err)
			},
			OnCompleted: func() {
				mu.Lock()
				flush()
				mu.Unlock()
				e.Complete()
			},
		})
	}))
}
