package treatz

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Clock provides time operations for the timing operators and time sources.
// Tests substitute clockz.NewFakeClock() for deterministic control.
type Clock = clockz.Clock

// RealClock is the default Clock using standard time.
var RealClock Clock = clockz.RealClock

func clockOr(c Clock) Clock {
	if c == nil {
		return RealClock
	}
	return c
}

// afterFunc runs fn on a goroutine of its own once d has elapsed.
// clockz.FakeClock invokes AfterFunc callbacks inside Advance with the clock
// locked, so a callback that touches the clock or emits downstream must not
// run inline.
func afterFunc(clock Clock, d time.Duration, fn func()) clockz.Timer {
	return clock.AfterFunc(d, func() { go fn() })
}
