package treatz

import (
	"context"
	"testing"
	"time"
)

func TestTake_Basic(t *testing.T) {
	r, _ := record(Take(Of[int, testError](1, 2, 3, 4, 5), 3))
	r.wait(t)

	r.assertValues(t, 1, 2, 3)
	r.assertFinished(t)
}

func TestTake_ZeroCompletesWithoutSubscribing(t *testing.T) {
	subscribed := false
	src := Create(func(_ context.Context, e *Emitter[int, testError]) {
		subscribed = true
		e.Complete()
	})

	r, _ := record(Take(src, 0))
	r.wait(t)

	r.assertValues(t)
	r.assertFinished(t)
	if subscribed {
		t.Error("source must not be subscribed for a count of zero")
	}
}

func TestTake_FewerElementsThanCount(t *testing.T) {
	r, _ := record(Take(Of[int, testError](1, 2), 5))
	r.wait(t)

	r.assertValues(t, 1, 2)
	r.assertFinished(t)
}

func TestTake_FailureBeforeCount(t *testing.T) {
	src := Create(func(_ context.Context, e *Emitter[int, testError]) {
		e.Next(1)
		e.Fail(errX)
	})

	r, _ := record(Take(src, 3))
	r.wait(t)

	r.assertValues(t, 1)
	r.assertFailed(t, errX)
}

func TestTake_DisposesSource(t *testing.T) {
	disposed := make(chan struct{})
	in := make(chan int)
	src := FromChannel[int, testError](in).Do(Hooks[int, testError]{
		OnDispose: func() { close(disposed) },
	})

	r, _ := record(Take(src, 2))
	in <- 1
	in <- 2
	r.wait(t)

	r.assertValues(t, 1, 2)
	r.assertFinished(t)
	select {
	case <-disposed:
	case <-time.After(time.Second):
		t.Fatal("expected the source to be disposed")
	}
}

func TestTakeWhile(t *testing.T) {
	r, _ := record(TakeWhile(Of[int, testError](1, 2, 3, 1), func(n int) bool { return n < 3 }))
	r.wait(t)

	r.assertValues(t, 1, 2)
	r.assertFinished(t)
}
