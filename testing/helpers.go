// Package testing provides test utilities for treatz sequences.
package testing

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/treatz"
)

// Recorder captures the events of a subscription. It is safe for use from
// the goroutines that deliver events.
type Recorder[T any, F error] struct {
	mu       sync.Mutex
	events   []treatz.Event[T, F]
	done     chan struct{}
	once     sync.Once
	disposed bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder[T any, F error]() *Recorder[T, F] {
	return &Recorder[T, F]{done: make(chan struct{})}
}

// Record subscribes the recorder to s.
func Record[S treatz.Shape, T any, F error](ctx context.Context, s treatz.Sequence[S, T, F]) (*Recorder[T, F], *treatz.Subscription) {
	r := NewRecorder[T, F]()
	sub := s.Treat(ctx, r.OnNext, r.OnCompleted, r.OnDisposed)
	return r, sub
}

// OnNext records a next event.
func (r *Recorder[T, F]) OnNext(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, treatz.Next[T, F](v))
}

// OnCompleted records the terminal event.
func (r *Recorder[T, F]) OnCompleted(c treatz.Completion[F]) {
	r.mu.Lock()
	r.events = append(r.events, treatz.Completed[T](c))
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

// OnDisposed records the end of the subscription.
func (r *Recorder[T, F]) OnDisposed() {
	r.mu.Lock()
	r.disposed = true
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

// Events returns a copy of the recorded events.
func (r *Recorder[T, F]) Events() []treatz.Event[T, F] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]treatz.Event[T, F], len(r.events))
	copy(out, r.events)
	return out
}

// Values returns the recorded elements in order.
func (r *Recorder[T, F]) Values() []T {
	return Values(r.Events())
}

// Ended reports whether the subscription has ended.
func (r *Recorder[T, F]) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// Wait blocks until the terminal event or the end of the subscription and
// fails the test if neither happens within timeout.
func (r *Recorder[T, F]) Wait(t *testing.T, timeout time.Duration) []treatz.Event[T, F] {
	t.Helper()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
	case <-timer.C:
		t.Fatalf("sequence did not terminate within %v", timeout)
	}
	return r.Events()
}

// CollectEvents subscribes to s and returns its events once it terminates.
func CollectEvents[S treatz.Shape, T any, F error](t *testing.T, s treatz.Sequence[S, T, F], timeout time.Duration) []treatz.Event[T, F] {
	t.Helper()

	r, sub := Record(context.Background(), s)
	defer sub.Dispose()
	return r.Wait(t, timeout)
}

// Values extracts the elements of events in order.
func Values[T any, F error](events []treatz.Event[T, F]) []T {
	values := make([]T, 0, len(events))
	for _, ev := range events {
		if v, ok := ev.Value(); ok {
			values = append(values, v)
		}
	}
	return values
}

// Completion returns the terminal completion of events, if any.
func Completion[T any, F error](events []treatz.Event[T, F]) (treatz.Completion[F], bool) {
	if len(events) == 0 {
		return treatz.Completion[F]{}, false
	}
	return events[len(events)-1].Completion()
}

// AssertValues verifies the elements of events.
func AssertValues[T any, F error](t *testing.T, events []treatz.Event[T, F], expected ...T) {
	t.Helper()

	got := Values(events)
	if len(got) == 0 && len(expected) == 0 {
		return
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected values %v, got %v", expected, got)
	}
}

// AssertFinished verifies that events end with a normal completion.
func AssertFinished[T any, F error](t *testing.T, events []treatz.Event[T, F]) {
	t.Helper()

	c, ok := Completion(events)
	if !ok {
		t.Errorf("expected completion, got %v", events)
		return
	}
	if f, failed := c.Failure(); failed {
		t.Errorf("expected normal completion, got failure: %v", f)
	}
}

// AssertFailed verifies that events end with a failure equal to expected.
func AssertFailed[T any, F error](t *testing.T, events []treatz.Event[T, F], expected F) {
	t.Helper()

	c, ok := Completion(events)
	if !ok {
		t.Errorf("expected failure %v, got %v", expected, events)
		return
	}
	f, failed := c.Failure()
	if !failed {
		t.Errorf("expected failure %v, got normal completion", expected)
		return
	}
	if !reflect.DeepEqual(f, expected) {
		t.Errorf("expected failure %v, got %v", expected, f)
	}
}

// AssertSameEvents verifies that two event sequences are identical.
func AssertSameEvents[T any, F error](t *testing.T, got, expected []treatz.Event[T, F]) {
	t.Helper()

	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected events %v, got %v", expected, got)
	}
}
