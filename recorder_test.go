package treatz

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"
)

// testError is the failure type used throughout the tests.
type testError struct {
	msg string
}

func (e testError) Error() string { return e.msg }

var (
	errX = testError{"X"}
	errY = testError{"Y"}
)

type recorder[T any, F error] struct {
	mu          sync.Mutex
	values      []T
	completions []Completion[F]
	disposed    int
	ended       chan struct{}
}

func record[S Shape, T any, F error](s Sequence[S, T, F]) (*recorder[T, F], *Subscription) {
	return recordCtx(context.Background(), s)
}

func recordCtx[S Shape, T any, F error](ctx context.Context, s Sequence[S, T, F]) (*recorder[T, F], *Subscription) {
	r := &recorder[T, F]{ended: make(chan struct{})}
	sub := s.Treat(ctx,
		func(v T) {
			r.mu.Lock()
			r.values = append(r.values, v)
			r.mu.Unlock()
		},
		func(c Completion[F]) {
			r.mu.Lock()
			r.completions = append(r.completions, c)
			r.mu.Unlock()
		},
		func() {
			r.mu.Lock()
			r.disposed++
			r.mu.Unlock()
			close(r.ended)
		},
	)
	return r, sub
}

func (r *recorder[T, F]) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.ended:
	case <-time.After(time.Second):
		t.Fatal("subscription did not end")
	}
}

func (r *recorder[T, F]) snapshot() ([]T, []Completion[F]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	values := append([]T(nil), r.values...)
	completions := append([]Completion[F](nil), r.completions...)
	return values, completions
}

func (r *recorder[T, F]) assertValues(t *testing.T, expected ...T) {
	t.Helper()
	values, _ := r.snapshot()
	if len(values) == 0 && len(expected) == 0 {
		return
	}
	if !reflect.DeepEqual(values, expected) {
		t.Errorf("expected values %v, got %v", expected, values)
	}
}

func (r *recorder[T, F]) assertFinished(t *testing.T) {
	t.Helper()
	_, completions := r.snapshot()
	if len(completions) != 1 {
		t.Fatalf("expected exactly one completion, got %v", completions)
	}
	if !completions[0].IsFinished() {
		t.Errorf("expected normal completion, got %v", completions[0])
	}
}

func (r *recorder[T, F]) assertFailed(t *testing.T, expected F) {
	t.Helper()
	_, completions := r.snapshot()
	if len(completions) != 1 {
		t.Fatalf("expected exactly one completion, got %v", completions)
	}
	f, failed := completions[0].Failure()
	if !failed {
		t.Fatalf("expected failure %v, got normal completion", expected)
	}
	if !reflect.DeepEqual(f, expected) {
		t.Errorf("expected failure %v, got %v", expected, f)
	}
}

func (r *recorder[T, F]) assertPending(t *testing.T) {
	t.Helper()
	_, completions := r.snapshot()
	if len(completions) != 0 {
		t.Errorf("expected no completion yet, got %v", completions)
	}
}

// waitValues blocks until at least n values have been recorded.
func (r *recorder[T, F]) waitValues(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		got := len(r.values)
		r.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d values within a second", n)
}

// eventually polls cond until it holds, failing the test after a second.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

// manual is a source driven by the test through the emitter captured at
// subscription.
type manual[T any] struct {
	mu sync.Mutex
	e  *Emitter[T, testError]
}

func (m *manual[T]) sequence() Treatable[T, testError] {
	return Create(func(_ context.Context, e *Emitter[T, testError]) {
		m.mu.Lock()
		m.e = e
		m.mu.Unlock()
	})
}

func (m *manual[T]) emitter() *Emitter[T, testError] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.e
}

func (m *manual[T]) next(v T) bool { return m.emitter().Next(v) }
func (m *manual[T]) fail(f testError) { m.emitter().Fail(f) }
func (m *manual[T]) complete() { m.emitter().Complete() }
