// Package rx is the untyped, push-based stream engine that treatz layers its
// typed failure channel on top of.
//
// An Observable is a lazy definition: nothing happens until Subscribe is called.
// Each subscription runs the observable's Producer synchronously on the
// subscribing goroutine; producers that need to wait (channels, timers) start
// their own goroutines and watch the supplied context for disposal.
//
// Events reach the Observer through an Emitter which serializes delivery
// without holding a lock across observer callbacks. At most one terminal
// event (error or completion) is observed and nothing is observed after it.
package rx

import (
	"context"
	"sync"
)

// Observer receives the events of a single subscription.
// Any callback may be nil.
type Observer[T any] struct {
	OnNext      func(T)
	OnError     func(error)
	OnCompleted func()

	// OnDisposed runs once when the subscription ends for any reason,
	// after the terminal callback if there was one.
	OnDisposed func()
}

// Producer drives one subscription of an Observable.
// It runs synchronously inside Subscribe. The context is canceled when the
// subscription is disposed or terminates.
type Producer[T any] func(ctx context.Context, e *Emitter[T])

// Observable is an untyped stream of T that terminates with either completion
// or an error of any type. The zero Observable completes immediately.
type Observable[T any] struct {
	produce Producer[T]
}

// Create builds an Observable from a Producer.
func Create[T any](produce Producer[T]) Observable[T] {
	return Observable[T]{produce: produce}
}

// Subscribe activates the observable. The returned Subscription cancels
// delivery when disposed; canceling ctx has the same effect.
func (o Observable[T]) Subscribe(ctx context.Context, obs Observer[T]) *Subscription {
	child, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel, obs.OnDisposed)
	if ctx.Err() != nil {
		sub.Dispose()
		return sub
	}
	sub.bind(ctx)

	e := &Emitter[T]{obs: obs, sub: sub, ctx: child}
	if o.produce == nil {
		e.Complete()
		return sub
	}
	o.produce(child, e)
	return sub
}

// Emitter delivers events to an Observer on behalf of a Producer.
// It is safe for concurrent use. Events are queued and delivered in order by
// whichever call finds the emitter idle, so an observer may feed events back
// into the emitter that is calling it.
type Emitter[T any] struct {
	ctx      context.Context
	obs      Observer[T]
	sub      *Subscription
	mu       sync.Mutex
	stopped  bool
	queue    []event[T]
	draining bool
}

type event[T any] struct {
	value    T
	err      error
	terminal bool
}

// Next delivers a value. It reports false once the subscription has
// terminated or been disposed so producers can stop early.
func (e *Emitter[T]) Next(v T) bool {
	e.mu.Lock()
	if !e.live() {
		e.mu.Unlock()
		return false
	}
	e.queue = append(e.queue, event[T]{value: v})
	e.drain()
	return true
}

// Error terminates the subscription with err.
// A nil error is treated as completion.
func (e *Emitter[T]) Error(err error) {
	e.terminate(event[T]{err: err, terminal: true})
}

// Complete terminates the subscription normally.
func (e *Emitter[T]) Complete() {
	e.terminate(event[T]{terminal: true})
}

func (e *Emitter[T]) terminate(ev event[T]) {
	e.mu.Lock()
	if !e.live() {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.queue = append(e.queue, ev)
	e.drain()
}

// drain delivers queued events unless another call is already delivering,
// in which case that call picks them up. Callers hold e.mu; drain releases it.
func (e *Emitter[T]) drain() {
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true
	for len(e.queue) > 0 {
		ev := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()
		e.dispatch(ev)
		e.mu.Lock()
	}
	e.queue = nil
	e.draining = false
	e.mu.Unlock()
}

func (e *Emitter[T]) dispatch(ev event[T]) {
	if !ev.terminal {
		if e.open() && e.obs.OnNext != nil {
			e.obs.OnNext(ev.value)
		}
		return
	}
	if !e.open() || !e.sub.markTerminated() {
		return
	}
	if ev.err != nil {
		if e.obs.OnError != nil {
			e.obs.OnError(ev.err)
		}
	} else if e.obs.OnCompleted != nil {
		e.obs.OnCompleted()
	}
	e.sub.finish()
}

// Active reports whether events would still be delivered.
func (e *Emitter[T]) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live()
}

// live reports whether the emitter still accepts events. Callers hold e.mu.
func (e *Emitter[T]) live() bool {
	return !e.stopped && e.open()
}

// open reports whether the subscription still accepts delivery. The context
// check makes cancellation by a downstream operator visible before the
// asynchronous disposal of the subscription runs.
func (e *Emitter[T]) open() bool {
	return e.sub.active() && e.ctx.Err() == nil
}

// Forward returns an Observer that relays every event into e.
func Forward[T any](e *Emitter[T]) Observer[T] {
	return Observer[T]{
		OnNext:      func(v T) { e.Next(v) },
		OnError:     e.Error,
		OnCompleted: e.Complete,
	}
}
