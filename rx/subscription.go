package rx

import (
	"context"
	"sync"
	"sync/atomic"
)

const (
	stateActive int32 = iota
	stateTerminated
	stateDisposed
)

// Subscription is the cancellation handle of one live activation.
type Subscription struct {
	cancel     context.CancelFunc
	release    func() bool
	onDisposed func()
	done       chan struct{}
	once       sync.Once
	state      atomic.Int32

	mu    sync.Mutex
	ended bool
}

func newSubscription(cancel context.CancelFunc, onDisposed func()) *Subscription {
	return &Subscription{
		cancel:     cancel,
		onDisposed: onDisposed,
		done:       make(chan struct{}),
	}
}

// Dispose stops delivery and releases upstream resources.
// It does not deliver a terminal event. Disposing an ended subscription is a no-op.
func (s *Subscription) Dispose() {
	if s.state.CompareAndSwap(stateActive, stateDisposed) {
		s.finish()
	}
}

// Disposed reports whether the subscription was ended by disposal rather
// than by a terminal event.
func (s *Subscription) Disposed() bool {
	return s.state.Load() == stateDisposed
}

// Done is closed once the subscription has ended, either after its terminal
// event has been delivered or after disposal.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) active() bool {
	return s.state.Load() == stateActive
}

func (s *Subscription) markTerminated() bool {
	return s.state.CompareAndSwap(stateActive, stateTerminated)
}

// bind disposes the subscription when the parent context is canceled.
func (s *Subscription) bind(ctx context.Context) {
	stop := context.AfterFunc(ctx, s.Dispose)

	s.mu.Lock()
	s.release = stop
	ended := s.ended
	s.mu.Unlock()

	if ended {
		stop()
	}
}

func (s *Subscription) finish() {
	s.once.Do(func() {
		s.mu.Lock()
		s.ended = true
		release := s.release
		s.mu.Unlock()

		if release != nil {
			release()
		}
		s.cancel()
		close(s.done)
		if s.onDisposed != nil {
			s.onDisposed()
		}
	})
}
