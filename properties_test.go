package treatz_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/treatz"
	"github.com/zoobzio/treatz/rx"
	treatztest "github.com/zoobzio/treatz/testing"
)

type codeError struct {
	code string
}

func (e codeError) Error() string { return e.code }

type wrappedError struct {
	inner codeError
}

func (e wrappedError) Error() string { return "wrapped " + e.inner.code }

var (
	errX = codeError{"X"}
	errY = codeError{"Y"}
)

const wait = time.Second

func failingAfter(f codeError, values ...int) treatz.Treatable[int, codeError] {
	return treatz.Create(func(_ context.Context, e *treatz.Emitter[int, codeError]) {
		for _, v := range values {
			if !e.Next(v) {
				return
			}
		}
		e.Fail(f)
	})
}

func TestProperty_ResultRoundTrip(t *testing.T) {
	sources := map[string]treatz.Treatable[int, codeError]{
		"finished": treatz.Of[int, codeError](1, 2, 3),
		"failed":   failingAfter(errX, 1, 2),
		"empty":    treatz.Empty[int, codeError](),
		"fail now": treatz.Fail[int](errY),
	}

	for name, s := range sources {
		t.Run(name, func(t *testing.T) {
			direct := treatztest.CollectEvents(t, s, wait)
			round := treatztest.CollectEvents(t, treatz.FromResults(s.Results()), wait)
			treatztest.AssertSameEvents(t, round, direct)
		})
	}
}

func TestProperty_MapAndMapErrorAreIndependent(t *testing.T) {
	s := failingAfter(errX, 1, 2)
	double := func(n int) int { return n * 2 }
	wrap := func(e codeError) wrappedError { return wrappedError{inner: e} }

	a := treatztest.CollectEvents(t, treatz.MapError(treatz.Map(s, double), wrap), wait)
	b := treatztest.CollectEvents(t, treatz.Map(treatz.MapError(s, wrap), double), wait)

	treatztest.AssertSameEvents(t, a, b)
	treatztest.AssertValues(t, a, 2, 4)
	treatztest.AssertFailed(t, a, wrappedError{inner: errX})
}

func TestProperty_MergeFirstFailureWins(t *testing.T) {
	failA := make(chan struct{})
	a := treatz.Create(func(ctx context.Context, e *treatz.Emitter[int, codeError]) {
		e.Next(1)
		e.Next(2)
		go func() {
			select {
			case <-failA:
				e.Fail(errX)
			case <-ctx.Done():
			}
		}()
	})

	// B emits 10, then tries once more as soon as it is disposed.
	bDisposed := make(chan struct{})
	var lateAccepted atomic.Bool
	b := treatz.Create(func(ctx context.Context, e *treatz.Emitter[int, codeError]) {
		e.Next(10)
		go func() {
			<-ctx.Done()
			lateAccepted.Store(e.Next(11))
			close(bDisposed)
		}()
	})

	r, _ := treatztest.Record(context.Background(), treatz.Merge(a, b))
	close(failA)
	events := r.Wait(t, wait)

	select {
	case <-bDisposed:
	case <-time.After(wait):
		t.Fatal("the surviving source was not disposed")
	}

	treatztest.AssertValues(t, events, 1, 2, 10)
	treatztest.AssertFailed(t, events, errX)
	if len(events) != 4 {
		t.Errorf("expected three elements and the failure, got %v", events)
	}
	if lateAccepted.Load() {
		t.Error("the surviving source could still emit after the failure")
	}
	if got := r.Events(); len(got) != len(events) {
		t.Errorf("events arrived after the failure: %v", got)
	}
}

func TestProperty_ZipShortCircuits(t *testing.T) {
	gate := make(chan struct{})
	a := treatz.Create(func(ctx context.Context, e *treatz.Emitter[int, codeError]) {
		go func() {
			select {
			case <-gate:
			case <-ctx.Done():
				return
			}
			e.Next(1)
			e.Fail(errX)
		}()
	})
	b := treatz.Of[int, codeError](10, 20)

	zipped := treatz.Zip([]treatz.Treatable[int, codeError]{a, b}, func(vs []int) [2]int {
		return [2]int{vs[0], vs[1]}
	})
	r, _ := treatztest.Record(context.Background(), zipped)
	close(gate)
	events := r.Wait(t, wait)

	treatztest.AssertValues(t, events, [2]int{1, 10})
	treatztest.AssertFailed(t, events, errX)
}

func TestProperty_RetryIsBounded(t *testing.T) {
	var attempts atomic.Int32
	alwaysFails := treatz.Deferred(func() treatz.Treatable[int, codeError] {
		attempts.Add(1)
		return treatz.Fail[int](errX)
	})

	events := treatztest.CollectEvents(t, alwaysFails.Retry(3), wait)
	treatztest.AssertFailed(t, events, errX)
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}

	attempts.Store(0)
	failsOnce := treatz.Deferred(func() treatz.Treatable[int, codeError] {
		if attempts.Add(1) == 1 {
			return treatz.Fail[int](errX)
		}
		return treatz.Just[int, codeError](42)
	})

	events = treatztest.CollectEvents(t, failsOnce.Retry(3), wait)
	treatztest.AssertValues(t, events, 42)
	treatztest.AssertFinished(t, events)
	if got := attempts.Load(); got > 2 {
		t.Errorf("expected at most 2 attempts, got %d", got)
	}
}

func TestProperty_TimeoutToFailure(t *testing.T) {
	clock := clockz.NewFakeClock()
	s := treatz.Never[int, codeError]().TimeoutFailure(10*time.Millisecond, errY, clock)

	r, sub := treatztest.Record(context.Background(), s)
	defer sub.Dispose()

	clock.Advance(9 * time.Millisecond)
	clock.BlockUntilReady()
	if events := r.Events(); len(events) != 0 {
		t.Fatalf("expected nothing before the deadline, got %v", events)
	}

	clock.Advance(time.Millisecond)
	clock.BlockUntilReady()
	events := r.Wait(t, wait)
	treatztest.AssertFailed(t, events, errY)
}

func TestProperty_AtMostOneTerminal(t *testing.T) {
	s := treatz.Create(func(_ context.Context, e *treatz.Emitter[int, codeError]) {
		e.Next(1)
		e.Complete()
		e.Fail(errX)
		e.Next(2)
		e.Complete()
	})

	events := treatztest.CollectEvents(t, s, wait)
	treatztest.AssertValues(t, events, 1)
	treatztest.AssertFinished(t, events)
	if len(events) != 2 {
		t.Errorf("expected one element and one completion, got %v", events)
	}
}

func TestProperty_InfallibleLift(t *testing.T) {
	o := rx.Create(func(_ context.Context, e *rx.Emitter[string]) {
		e.Next("a")
		e.Error(errX)
	})

	events := treatztest.CollectEvents(t, treatz.FromObservableOrReturn(o, "z"), wait)
	treatztest.AssertValues(t, events, "a", "z")
	treatztest.AssertFinished(t, events)
}
