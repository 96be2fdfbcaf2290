package treatz

import (
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zoobzio/clockz"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func assertTimes[F error](t *testing.T, r *recorder[time.Time, F], expected ...time.Time) {
	t.Helper()
	values, _ := r.snapshot()
	if len(values) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, values)
	}
	for i := range expected {
		if !values[i].Equal(expected[i]) {
			t.Errorf("expected %v at %d, got %v", expected[i], i, values[i])
		}
	}
}

func TestTimer(t *testing.T) {
	clock := clockz.NewFakeClockAt(epoch)

	r, _ := record(Timer[testError](time.Minute, clock))
	r.assertPending(t)

	clock.Advance(time.Minute)
	clock.BlockUntilReady()
	r.wait(t)

	assertTimes(t, r, epoch.Add(time.Minute))
	r.assertFinished(t)
}

func TestTimer_DisposedBeforeFiring(t *testing.T) {
	clock := clockz.NewFakeClockAt(epoch)

	r, sub := record(Timer[testError](time.Minute, clock))
	sub.Dispose()
	r.wait(t)
	eventually(t, func() bool { return !clock.HasWaiters() }, "disposal did not stop the timer")

	clock.Advance(time.Minute)
	clock.BlockUntilReady()
	r.assertValues(t)
	r.assertPending(t)
}

func TestInterval(t *testing.T) {
	clock := clockz.NewFakeClockAt(epoch)

	r, sub := record(Take(Interval[testError](time.Second, clock), 3))
	defer sub.Dispose()

	for i := 1; i <= 3; i++ {
		clock.Advance(time.Second)
		clock.BlockUntilReady()
		r.waitValues(t, i)
	}
	r.wait(t)

	r.assertValues(t, 0, 1, 2)
	r.assertFinished(t)
}

func TestCron_FiresOnSchedule(t *testing.T) {
	clock := clockz.NewFakeClockAt(epoch)

	r, sub := record(Cron("*/5 * * * *", clock))
	defer sub.Dispose()

	clock.Advance(4 * time.Minute)
	clock.BlockUntilReady()
	r.assertValues(t)

	clock.Advance(time.Minute)
	clock.BlockUntilReady()
	r.waitValues(t, 1)
	assertTimes(t, r, epoch.Add(5*time.Minute))

	clock.Advance(5 * time.Minute)
	clock.BlockUntilReady()
	r.waitValues(t, 2)
	assertTimes(t, r, epoch.Add(5*time.Minute), epoch.Add(10*time.Minute))
	r.assertPending(t)
}

func TestCron_Descriptor(t *testing.T) {
	clock := clockz.NewFakeClockAt(epoch)

	r, sub := record(Cron("@every 30s", clock))
	defer sub.Dispose()

	clock.Advance(30 * time.Second)
	clock.BlockUntilReady()
	r.waitValues(t, 1)
	assertTimes(t, r, epoch.Add(30*time.Second))
}

func TestCron_InvalidExpression(t *testing.T) {
	r, _ := record(Cron("not a schedule", nil))
	r.wait(t)

	_, completions := r.snapshot()
	if len(completions) != 1 {
		t.Fatalf("expected a completion, got %v", completions)
	}
	f, failed := completions[0].Failure()
	if !failed {
		t.Fatal("expected failure")
	}
	var se *ScheduleError
	if !errors.As(f, &se) || se.Expr != "not a schedule" || se.Unwrap() == nil {
		t.Errorf("unexpected failure %v", f)
	}
}

// onceAt fires a single time at the given instant.
type onceAt time.Time

func (o onceAt) Next(t time.Time) time.Time {
	if t.Before(time.Time(o)) {
		return time.Time(o)
	}
	return time.Time{}
}

var _ cron.Schedule = onceAt{}

func TestFromSchedule_FinishesWhenExhausted(t *testing.T) {
	clock := clockz.NewFakeClockAt(epoch)
	at := epoch.Add(time.Hour)

	r, _ := record(FromSchedule[testError](onceAt(at), clock))

	clock.Advance(time.Hour)
	clock.BlockUntilReady()
	r.wait(t)

	assertTimes(t, r, at)
	r.assertFinished(t)
}
