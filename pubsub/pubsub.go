// Package pubsub exposes Redis pub/sub channels as typed sequences.
//
// Subscribe turns one or more channels into a Treatable of messages that
// fails with *Error when the connection cannot be established or breaks.
// Publish drains a Treatable into a channel and reports the outcome as a
// Completable.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	orders := pubsub.Subscribe(rdb, "orders")
//	sub := orders.Treat(ctx, func(m *redis.Message) {
//		log.Printf("%s: %s", m.Channel, m.Payload)
//	}, nil, nil)
//	defer sub.Dispose()
package pubsub

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/zoobzio/treatz"
)

// Operations reported in Error.Op.
const (
	OpSubscribe = "subscribe"
	OpEncode    = "encode"
	OpPublish   = "publish"
)

// Error is the failure of Redis-backed sequences.
type Error struct {
	Op      string
	Channel string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pubsub %s %s: %v", e.Op, e.Channel, e.Err)
}

// Unwrap returns the underlying Redis or encoding error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Subscribe emits every message published to channels. The subscription is
// confirmed before the first message is read; a failure to subscribe fails
// the sequence. Disposal unsubscribes and closes the connection.
func Subscribe(client redis.UniversalClient, channels ...string) treatz.Treatable[*redis.Message, *Error] {
	name := strings.Join(channels, ",")
	return treatz.Create(func(ctx context.Context, e *treatz.Emitter[*redis.Message, *Error]) {
		go func() {
			ps := client.Subscribe(ctx, channels...)
			defer func() { _ = ps.Close() }()

			if _, err := ps.Receive(ctx); err != nil {
				if ctx.Err() == nil {
					e.Fail(&Error{Op: OpSubscribe, Channel: name, Err: err})
				}
				return
			}

			messages := ps.Channel()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-messages:
					if !ok {
						e.Complete()
						return
					}
					if !e.Next(msg) {
						return
					}
				}
			}
		}()
	})
}

// Publish sends every element of s to channel, converting it with encode.
// The first encoding or Redis error is converted through mapErr and fails
// the result, disposing s. A failure of s propagates unchanged.
//
// Example:
//
//	done := pubsub.Publish(rdb, "orders", orders,
//		func(o Order) (any, error) { return json.Marshal(o) },
//		func(e *pubsub.Error) OrderError { return OrderError{Cause: e} },
//	)
func Publish[T any, F error](client redis.UniversalClient, channel string, s treatz.Treatable[T, F], encode func(T) (any, error), mapErr func(*Error) F) treatz.Completable[F] {
	return treatz.CompletableCreate(func(ctx context.Context, done func(treatz.Completion[F])) {
		s.Treat(ctx,
			func(v T) {
				msg, err := encode(v)
				if err != nil {
					done(treatz.Failed(mapErr(&Error{Op: OpEncode, Channel: channel, Err: err})))
					return
				}
				if err := client.Publish(ctx, channel, msg).Err(); err != nil {
					done(treatz.Failed(mapErr(&Error{Op: OpPublish, Channel: channel, Err: err})))
				}
			},
			done,
			nil,
		)
	})
}
