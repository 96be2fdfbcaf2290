package pubsub

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/treatz"
)

type publishError struct {
	cause *Error
}

func (e publishError) Error() string { return "publish failed: " + e.cause.Error() }

// unreachable returns a client whose every command fails fast.
func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// live returns a client for a local Redis, skipping the test when none runs.
func live(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "localhost:6379",
		DB:          1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skip("Redis not available, skipping")
	}
	return rdb
}

func collect[S treatz.Shape, T any, F error](t *testing.T, s treatz.Sequence[S, T, F]) ([]T, treatz.Completion[F]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	values, c, err := s.Collect(ctx)
	require.NoError(t, err)
	return values, c
}

func TestSubscribe_ConnectionFailure(t *testing.T) {
	_, c := collect(t, Subscribe(unreachable(t), "orders", "refunds"))

	f, failed := c.Failure()
	require.True(t, failed)
	assert.Equal(t, OpSubscribe, f.Op)
	assert.Equal(t, "orders,refunds", f.Channel)
	assert.Error(t, f.Err)
	assert.Contains(t, f.Error(), "pubsub subscribe orders,refunds")
}

func TestPublish_EmptySourceFinishes(t *testing.T) {
	done := Publish(unreachable(t), "orders", treatz.Empty[int, publishError](),
		func(v int) (any, error) { return v, nil },
		func(e *Error) publishError { return publishError{cause: e} },
	)

	_, c := collect(t, done)
	assert.True(t, c.IsFinished())
}

func TestPublish_RedisFailureIsMapped(t *testing.T) {
	done := Publish(unreachable(t), "orders", treatz.Of[int, publishError](1, 2),
		func(v int) (any, error) { return v, nil },
		func(e *Error) publishError { return publishError{cause: e} },
	)

	_, c := collect(t, done)
	f, failed := c.Failure()
	require.True(t, failed)
	assert.Equal(t, OpPublish, f.cause.Op)
	assert.Equal(t, "orders", f.cause.Channel)
}

func TestPublish_EncodeFailure(t *testing.T) {
	boom := errors.New("cannot encode")
	done := Publish(unreachable(t), "orders", treatz.Of[int, *Error](1),
		func(int) (any, error) { return nil, boom },
		func(e *Error) *Error { return e },
	)

	_, c := collect(t, done)
	f, failed := c.Failure()
	require.True(t, failed)
	assert.Equal(t, OpEncode, f.Op)
	assert.ErrorIs(t, f, boom)
}

func TestPublish_SourceFailurePropagates(t *testing.T) {
	sourceErr := publishError{cause: &Error{Op: "read", Channel: "upstream", Err: errors.New("gone")}}
	done := Publish(unreachable(t), "orders", treatz.Fail[int](sourceErr),
		func(v int) (any, error) { return v, nil },
		func(e *Error) publishError { return publishError{cause: e} },
	)

	_, c := collect(t, done)
	f, failed := c.Failure()
	require.True(t, failed)
	assert.Equal(t, sourceErr, f)
}

func TestRoundTrip_LiveRedis(t *testing.T) {
	rdb := live(t)
	channel := "treatz-test-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan string, 3)
	sub := Subscribe(rdb, channel).Treat(ctx, func(m *redis.Message) {
		received <- m.Payload
	}, nil, nil)
	defer sub.Dispose()

	// Wait for the subscription to be registered before publishing.
	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(ctx, channel).Result()
		return err == nil && n[channel] > 0
	}, 2*time.Second, 10*time.Millisecond)

	done := Publish(rdb, channel, treatz.Of[string, *Error]("a", "b", "c"),
		func(s string) (any, error) { return s, nil },
		func(e *Error) *Error { return e },
	)
	_, c := collect(t, done)
	require.True(t, c.IsFinished())

	var got []string
	for len(got) < 3 {
		select {
		case p := <-received:
			got = append(got, p)
		case <-ctx.Done():
			t.Fatalf("received only %v", got)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
