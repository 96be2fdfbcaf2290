package treatz

import (
	"context"
	"sync"

	"github.com/zoobzio/treatz/rx"
)

// ShareScope decides what a shared sequence remembers between connections.
type ShareScope int

const (
	// ShareWhileConnected forgets replayed elements and the outcome once the
	// last subscriber leaves or the source terminates. The next subscriber
	// starts a fresh subscription to the source.
	ShareWhileConnected ShareScope = iota

	// ShareForever keeps replayed elements across reconnections and replays
	// the outcome to every subscriber that arrives after the source terminated.
	ShareForever
)

func (s ShareScope) String() string {
	if s == ShareForever {
		return "forever"
	}
	return "while-connected"
}

// Share multicasts one subscription to the source to every subscriber.
// The source is subscribed when the first subscriber arrives and disposed
// when the last one leaves. New subscribers first receive up to replay of
// the most recent elements.
//
// When to use:
//   - Expensive or side-effecting sources consumed by several subscribers
//   - Caching the latest state of a feed for late subscribers
//
// Example:
//
//	// One price feed connection for every widget, each starting from the
//	// latest price
//	prices := feed.Share(1, treatz.ShareWhileConnected)
func (s Sequence[S, T, F]) Share(replay int, scope ShareScope) Sequence[S, T, F] {
	sh := &shared[T]{
		source: s.source,
		replay: replay,
		scope:  scope,
		subs:   make(map[uint64]*rx.Emitter[T]),
	}
	return wrap[S, T, F](rx.Create(sh.subscribe))
}

//nolint:govet // fieldalignment: struct layout optimized for readability
type shared[T any] struct {
	source rx.Observable[T]
	replay int
	scope  ShareScope

	mu     sync.Mutex
	subs   map[uint64]*rx.Emitter[T]
	nextID uint64
	buffer []T

	// deliveries run in queue order, never under mu
	outbox   []func()
	flushing bool

	// connection state
	conn       uint64
	connected  bool
	disconnect context.CancelFunc

	// outcome, kept only by ShareForever
	terminated bool
	err        error
}

func (sh *shared[T]) subscribe(ctx context.Context, e *rx.Emitter[T]) {
	sh.mu.Lock()
	for _, v := range sh.buffer {
		sh.outbox = append(sh.outbox, func() { e.Next(v) })
	}
	if sh.terminated {
		err := sh.err
		sh.outbox = append(sh.outbox, func() { e.Error(err) })
		sh.flush()
		return
	}

	id := sh.nextID
	sh.nextID++
	sh.subs[id] = e

	connect := !sh.connected
	var connCtx context.Context
	var conn uint64
	if connect {
		sh.conn++
		conn = sh.conn
		sh.connected = true
		connCtx, sh.disconnect = context.WithCancel(context.Background())
	}
	sh.flush()

	context.AfterFunc(ctx, func() { sh.leave(id) })

	if connect {
		sh.source.Subscribe(connCtx, rx.Observer[T]{
			OnNext:      func(v T) { sh.next(conn, v) },
			OnError:     func(err error) { sh.terminate(conn, err) },
			OnCompleted: func() { sh.terminate(conn, nil) },
		})
	}
}

func (sh *shared[T]) next(conn uint64, v T) {
	sh.mu.Lock()
	if conn != sh.conn || !sh.connected {
		sh.mu.Unlock()
		return
	}
	if sh.replay > 0 {
		sh.buffer = append(sh.buffer, v)
		if len(sh.buffer) > sh.replay {
			sh.buffer = sh.buffer[len(sh.buffer)-sh.replay:]
		}
	}
	for _, e := range sh.subs {
		sh.outbox = append(sh.outbox, func() { e.Next(v) })
	}
	sh.flush()
}

// terminate delivers the outcome of connection conn. A nil err completes.
func (sh *shared[T]) terminate(conn uint64, err error) {
	sh.mu.Lock()
	if conn != sh.conn || !sh.connected {
		sh.mu.Unlock()
		return
	}
	for _, e := range sh.subs {
		sh.outbox = append(sh.outbox, func() { e.Error(err) })
	}
	sh.subs = make(map[uint64]*rx.Emitter[T])
	sh.connected = false
	sh.disconnect()
	if sh.scope == ShareForever {
		sh.terminated = true
		sh.err = err
	} else {
		sh.buffer = nil
	}
	sh.flush()
}

// flush runs queued deliveries unless another call is already running them,
// in which case that call picks them up. Callers hold sh.mu; flush releases it.
func (sh *shared[T]) flush() {
	if sh.flushing {
		sh.mu.Unlock()
		return
	}
	sh.flushing = true
	for len(sh.outbox) > 0 {
		deliver := sh.outbox[0]
		sh.outbox = sh.outbox[1:]
		sh.mu.Unlock()
		deliver()
		sh.mu.Lock()
	}
	sh.outbox = nil
	sh.flushing = false
	sh.mu.Unlock()
}

func (sh *shared[T]) leave(id uint64) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.subs[id]; !ok {
		return
	}
	delete(sh.subs, id)
	if len(sh.subs) > 0 || !sh.connected {
		return
	}
	sh.connected = false
	sh.disconnect()
	if sh.scope == ShareWhileConnected {
		sh.buffer = nil
	}
}
