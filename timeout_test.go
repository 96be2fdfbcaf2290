package treatz

import (
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestTimeoutFailure(t *testing.T) {
	clock := clockz.NewFakeClock()

	r, _ := record(Never[int, testError]().TimeoutFailure(10*time.Millisecond, errY, clock))

	clock.Advance(9 * time.Millisecond)
	clock.BlockUntilReady()
	r.assertPending(t)

	clock.Advance(time.Millisecond)
	clock.BlockUntilReady()
	r.wait(t)

	r.assertValues(t)
	r.assertFailed(t, errY)
}

func TestTimeout_RestartsAfterEveryElement(t *testing.T) {
	clock := clockz.NewFakeClock()
	src := &manual[int]{}

	r, sub := record(src.sequence().TimeoutFailure(10*time.Millisecond, errY, clock))
	defer sub.Dispose()

	clock.Advance(8 * time.Millisecond)
	clock.BlockUntilReady()
	src.next(1)

	clock.Advance(8 * time.Millisecond)
	clock.BlockUntilReady()
	src.next(2)
	r.assertPending(t)

	src.complete()
	r.wait(t)
	r.assertValues(t, 1, 2)
	r.assertFinished(t)

	// The countdown is disarmed once the source has finished.
	clock.Advance(time.Second)
	clock.BlockUntilReady()
	r.assertFinished(t)
}

func TestTimeout_SwitchesToOther(t *testing.T) {
	clock := clockz.NewFakeClock()
	src := &manual[string]{}

	r, _ := record(src.sequence().Timeout(time.Second, Of[string, testError]("cached"), clock))
	src.next("live")

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	r.wait(t)

	if src.next("late") {
		t.Error("the source must be disposed at expiry")
	}
	r.assertValues(t, "live", "cached")
	r.assertFinished(t)
}

func TestTimeout_SourceFailureBeforeExpiry(t *testing.T) {
	clock := clockz.NewFakeClock()
	src := &manual[int]{}

	r, _ := record(src.sequence().TimeoutFailure(time.Second, errY, clock))
	src.fail(errX)
	r.wait(t)

	clock.Advance(time.Second)
	clock.BlockUntilReady()

	r.assertFailed(t, errX)
}
