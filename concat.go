package treatz

import (
	"context"
	"sync"

	"github.com/zoobzio/treatz/rx"
)

// Concat subscribes to the sources one at a time, moving to the next only
// after the current one finishes. A failure propagates immediately and
// later sources are never subscribed.
//
// Example:
//
//	// Replay history, then follow live updates
//	feed := treatz.Concat(history, live)
func Concat[S Shape, T any, F error](sources ...Sequence[S, T, F]) Treatable[T, F] {
	return wrap[ShapeContinuous, T, F](rx.Create(func(ctx context.Context, e *rx.Emitter[T]) {
		var (
			loop serial
			next int
		)
		var advance func()
		advance = func() {
			loop.run(func() {
				if next == len(sources) {
					e.Complete()
					return
				}
				src := sources[next]
				next++
				src.source.Subscribe(ctx, rx.Observer[T]{
					OnNext:      func(v T) { e.Next(v) },
					OnError:     e.Error,
					OnCompleted: advance,
				})
			})
		}
		advance()
	}))
}

// serial runs steps one at a time on whichever goroutine requested the
// first one. A step requested while another runs is replayed by the running
// loop instead of recursing, so synchronous sources do not grow the stack.
type serial struct {
	mu      sync.Mutex
	running bool
	pending bool
}

func (s *serial) run(step func()) {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	for {
		step()

		s.mu.Lock()
		if !s.pending {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.pending = false
		s.mu.Unlock()
	}
}
