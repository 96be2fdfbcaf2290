package treatz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/treatz/rx"
)

// cronParser accepts standard five-field expressions, an optional leading
// seconds field and descriptors such as @hourly or @every 5m.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ScheduleError is the failure of a Cron sequence whose expression does not parse.
type ScheduleError struct {
	Expr string
	Err  error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("invalid cron expression %q: %v", e.Expr, e.Err)
}

// Unwrap returns the parser error.
func (e *ScheduleError) Unwrap() error {
	return e.Err
}

// Timer resolves with the time the clock fired once d has elapsed.
func Timer[F error](d time.Duration, clock Clock) Single[time.Time, F] {
	clock = clockOr(clock)
	return wrap[ShapeSingle, time.Time, F](rx.Create(func(ctx context.Context, e *rx.Emitter[time.Time]) {
		timer := clock.NewTimer(d)
		go func() {
			select {
			case <-ctx.Done():
				timer.Stop()
			case at := <-timer.C():
				if e.Next(at) {
					e.Complete()
				}
			}
		}()
	}))
}

// Interval emits 0, 1, 2, ... once per period until disposed. Ticks the
// subscriber is too slow to receive are dropped.
func Interval[F error](period time.Duration, clock Clock) Treatable[int, F] {
	clock = clockOr(clock)
	return wrap[ShapeContinuous, int, F](rx.Create(func(ctx context.Context, e *rx.Emitter[int]) {
		ticker := clock.NewTicker(period)
		go func() {
			defer ticker.Stop()
			for n := 0; ; n++ {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C():
					if !e.Next(n) {
						return
					}
				}
			}
		}()
	}))
}

// FromSchedule emits the activation time every time schedule fires. It
// finishes if the schedule has no further activation.
func FromSchedule[F error](schedule cron.Schedule, clock Clock) Treatable[time.Time, F] {
	clock = clockOr(clock)
	return wrap[ShapeContinuous, time.Time, F](rx.Create(func(ctx context.Context, e *rx.Emitter[time.Time]) {
		var (
			mu    sync.Mutex
			timer clockz.Timer
		)

		// arm schedules the activation following from and reports whether
		// there is one. Each activation arms its successor before emitting.
		var arm func(from time.Time) bool
		arm = func(from time.Time) bool {
			next := schedule.Next(from)
			if next.IsZero() {
				return false
			}

			mu.Lock()
			defer mu.Unlock()
			if ctx.Err() != nil {
				return true
			}
			timer = afterFunc(clock, next.Sub(clock.Now()), func() {
				more := arm(next)
				if e.Next(next) && !more {
					e.Complete()
				}
			})
			return true
		}

		context.AfterFunc(ctx, func() {
			mu.Lock()
			defer mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
		})
		if !arm(clock.Now()) {
			e.Complete()
		}
	}))
}

// Cron emits the activation time every time the cron expression fires.
// An expression that does not parse fails with *ScheduleError at
// subscription.
//
// Example:
//
//	// Rebuild the report at the top of every hour
//	hourly := treatz.Cron("0 * * * *", treatz.RealClock)
//	reports := treatz.FlatMap(hourly, func(time.Time) treatz.Single[Report, *treatz.ScheduleError] {
//		return buildReport()
//	})
func Cron(expr string, clock Clock) Treatable[time.Time, *ScheduleError] {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return Fail[time.Time](&ScheduleError{Expr: expr, Err: err})
	}
	return FromSchedule[*ScheduleError](schedule, clock)
}
