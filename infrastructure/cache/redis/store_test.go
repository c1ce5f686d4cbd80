package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpipe/application/ports"
	"eventpipe/domain/event"
	apperrors "eventpipe/pkg/errors"
)

// staticCreds is a canned credential resolver
type staticCreds struct {
	token string
	ok    bool
	err   error
}

func (c staticCreds) ResolveToken(ctx context.Context) (string, bool, error) {
	return c.token, c.ok, c.err
}

func testRecord() *event.Event {
	return event.NewSeededGenerator(42).Generate()
}

func testRecords(n int) []*event.Event {
	return event.NewSeededGenerator(42).GenerateBatch(n)
}

func storeFor(t *testing.T, handle script, creds ports.CredentialResolver) *Store {
	t.Helper()
	addr := startCacheServer(t, handle)
	return NewStore(addr, testOptions(), creds, nil)
}

func unreachableStore(creds ports.CredentialResolver) *Store {
	return NewStoreWithDialer(func(ctx context.Context) (*Session, error) {
		return nil, apperrors.NewNetworkError("cache connect failed", errors.New("connection refused"))
	}, creds, nil)
}

func TestStorePutBatch(t *testing.T) {
	t.Run("per record outcomes", func(t *testing.T) {
		// second SET is refused, its neighbors still land
		sets := 0
		store := storeFor(t, func(args []string) string {
			switch args[0] {
			case "PING":
				return "+PONG\r\n"
			case "SET":
				sets++
				if sets == 2 {
					return "-ERR oom\r\n"
				}
				return "+OK\r\n"
			}
			return "-ERR unknown command\r\n"
		}, nil)

		outcomes := store.PutBatch(context.Background(), testRecords(3))
		assert.Equal(t, []ports.WriteOutcome{ports.Cached, ports.SkippedNoCache, ports.Cached}, outcomes)
	})

	t.Run("unreachable cache skips whole batch", func(t *testing.T) {
		store := unreachableStore(nil)

		outcomes := store.PutBatch(context.Background(), testRecords(2))
		assert.Equal(t, []ports.WriteOutcome{ports.SkippedNoCache, ports.SkippedNoCache}, outcomes)
	})

	t.Run("rejected auth continues unauthenticated", func(t *testing.T) {
		var sawAuth, sawSet atomic.Bool
		store := storeFor(t, func(args []string) string {
			switch args[0] {
			case "AUTH":
				sawAuth.Store(true)
				return "-ERR invalid password\r\n"
			case "PING":
				return "+PONG\r\n"
			case "SET":
				sawSet.Store(true)
				return "+OK\r\n"
			}
			return "-ERR unknown command\r\n"
		}, staticCreds{token: "bad", ok: true})

		outcomes := store.PutBatch(context.Background(), testRecords(1))
		assert.Equal(t, []ports.WriteOutcome{ports.Cached}, outcomes)
		assert.True(t, sawAuth.Load())
		assert.True(t, sawSet.Load())
	})

	t.Run("credential resolution failure skips auth", func(t *testing.T) {
		var sawAuth atomic.Bool
		store := storeFor(t, func(args []string) string {
			switch args[0] {
			case "AUTH":
				sawAuth.Store(true)
				return "+OK\r\n"
			case "PING":
				return "+PONG\r\n"
			case "SET":
				return "+OK\r\n"
			}
			return "-ERR unknown command\r\n"
		}, staticCreds{err: errors.New("secret store down")})

		outcomes := store.PutBatch(context.Background(), testRecords(1))
		assert.Equal(t, []ports.WriteOutcome{ports.Cached}, outcomes)
		assert.False(t, sawAuth.Load())
	})

	t.Run("failed ping skips whole batch", func(t *testing.T) {
		store := storeFor(t, func(args []string) string {
			return "-ERR loading dataset\r\n"
		}, nil)

		outcomes := store.PutBatch(context.Background(), testRecords(3))
		for _, o := range outcomes {
			assert.Equal(t, ports.SkippedNoCache, o)
		}
	})

	t.Run("hostile bulk length mid batch degrades that record only", func(t *testing.T) {
		sets := 0
		store := storeFor(t, func(args []string) string {
			switch args[0] {
			case "PING":
				return "+PONG\r\n"
			case "SET":
				sets++
				if sets == 2 {
					return "$9223372036854775806\r\n"
				}
				return "+OK\r\n"
			}
			return "-ERR unknown command\r\n"
		}, nil)

		outcomes := store.PutBatch(context.Background(), testRecords(3))
		assert.Equal(t, []ports.WriteOutcome{ports.Cached, ports.SkippedNoCache, ports.Cached}, outcomes)
	})

	t.Run("transport loss mid batch degrades remaining records", func(t *testing.T) {
		sets := 0
		store := storeFor(t, func(args []string) string {
			switch args[0] {
			case "PING":
				return "+PONG\r\n"
			case "SET":
				sets++
				if sets == 2 {
					return "" // drop the connection
				}
				return "+OK\r\n"
			}
			return "-ERR unknown command\r\n"
		}, nil)

		outcomes := store.PutBatch(context.Background(), testRecords(3))
		assert.Equal(t, []ports.WriteOutcome{ports.Cached, ports.SkippedNoCache, ports.SkippedNoCache}, outcomes)
	})
}

func TestStorePut(t *testing.T) {
	store := storeFor(t, func(args []string) string {
		switch args[0] {
		case "PING":
			return "+PONG\r\n"
		case "SET":
			return "+OK\r\n"
		}
		return "-ERR unknown command\r\n"
	}, nil)

	assert.Equal(t, ports.Cached, store.Put(context.Background(), testRecord()))
}

func TestStoreFetchKey(t *testing.T) {
	t.Run("hit returns payload", func(t *testing.T) {
		store := storeFor(t, func(args []string) string {
			if args[0] == "GET" && args[1] == "event:42" {
				return "$14\r\n{\"event_id\":1}\r\n"
			}
			return "$-1\r\n"
		}, nil)

		payload, err := store.FetchKey(context.Background(), "event:42")
		require.NoError(t, err)
		assert.Equal(t, `{"event_id":1}`, string(payload))
	})

	t.Run("miss is not found", func(t *testing.T) {
		store := storeFor(t, func(args []string) string {
			return "$-1\r\n"
		}, nil)

		_, err := store.FetchKey(context.Background(), "event:missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("unreachable cache is unavailable", func(t *testing.T) {
		store := unreachableStore(nil)

		_, err := store.FetchKey(context.Background(), "event:1")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnavailable(err))
	})

	t.Run("rejected auth token is fatal", func(t *testing.T) {
		var sawGet atomic.Bool
		store := storeFor(t, func(args []string) string {
			switch args[0] {
			case "AUTH":
				return "-ERR invalid password\r\n"
			case "GET":
				sawGet.Store(true)
			}
			return "$-1\r\n"
		}, staticCreds{token: "bad", ok: true})

		_, err := store.FetchKey(context.Background(), "event:1")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
		assert.False(t, sawGet.Load())
	})

	t.Run("credential resolution failure is fatal", func(t *testing.T) {
		store := storeFor(t, func(args []string) string {
			return "$-1\r\n"
		}, staticCreds{err: errors.New("secret store down")})

		_, err := store.FetchKey(context.Background(), "event:1")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("absent credentials skip auth", func(t *testing.T) {
		var sawAuth atomic.Bool
		store := storeFor(t, func(args []string) string {
			if args[0] == "AUTH" {
				sawAuth.Store(true)
			}
			return "$2\r\nhi\r\n"
		}, staticCreds{ok: false})

		payload, err := store.FetchKey(context.Background(), "event:1")
		require.NoError(t, err)
		assert.Equal(t, "hi", string(payload))
		assert.False(t, sawAuth.Load())
	})

	t.Run("server error reply is unavailable", func(t *testing.T) {
		store := storeFor(t, func(args []string) string {
			return "-ERR loading dataset\r\n"
		}, nil)

		_, err := store.FetchKey(context.Background(), "event:1")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnavailable(err))
		assert.True(t, apperrors.IsProtocol(errors.Unwrap(err)))
	})

	t.Run("dropped connection is unavailable", func(t *testing.T) {
		store := storeFor(t, func(args []string) string {
			return ""
		}, nil)

		_, err := store.FetchKey(context.Background(), "event:1")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnavailable(err))
	})
}

func TestStoreFetch(t *testing.T) {
	store := storeFor(t, func(args []string) string {
		if args[0] == "GET" && args[1] == event.CacheKey("42") {
			return "$2\r\nok\r\n"
		}
		return "$-1\r\n"
	}, nil)

	payload, err := store.Fetch(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(payload))
}

// trackingDialer records every session handed to the store so tests can
// assert they were all closed.
func trackingDialer(addr string, opts Options, sessions *[]*Session) Dialer {
	return func(ctx context.Context) (*Session, error) {
		sess, err := Dial(ctx, addr, opts)
		if sess != nil {
			*sessions = append(*sessions, sess)
		}
		return sess, err
	}
}

func TestStoreSessionLifecycle(t *testing.T) {
	t.Run("read session closed after dropped connection", func(t *testing.T) {
		addr := startCacheServer(t, func(args []string) string {
			return "" // drop without replying
		})

		var sessions []*Session
		store := NewStoreWithDialer(trackingDialer(addr, testOptions(), &sessions), nil, nil)

		_, err := store.FetchKey(context.Background(), "event:1")
		require.Error(t, err)
		require.Len(t, sessions, 1)
		assert.True(t, sessions[0].closed)
	})

	t.Run("read session closed after read timeout", func(t *testing.T) {
		addr := startCacheServer(t, func(args []string) string {
			time.Sleep(500 * time.Millisecond)
			return "$-1\r\n"
		})

		opts := testOptions()
		opts.ReadTimeout = 50 * time.Millisecond
		var sessions []*Session
		store := NewStoreWithDialer(trackingDialer(addr, opts, &sessions), nil, nil)

		_, err := store.FetchKey(context.Background(), "event:1")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnavailable(err))
		require.Len(t, sessions, 1)
		assert.True(t, sessions[0].closed)
	})

	t.Run("write session closed even when the batch degrades", func(t *testing.T) {
		addr := startCacheServer(t, func(args []string) string {
			if args[0] == "PING" {
				return "+PONG\r\n"
			}
			return "" // drop on the first SET
		})

		var sessions []*Session
		store := NewStoreWithDialer(trackingDialer(addr, testOptions(), &sessions), nil, nil)

		outcomes := store.PutBatch(context.Background(), testRecords(2))
		assert.Equal(t, []ports.WriteOutcome{ports.SkippedNoCache, ports.SkippedNoCache}, outcomes)
		require.Len(t, sessions, 1)
		assert.True(t, sessions[0].closed)
	})

	t.Run("successful fetch closes its session too", func(t *testing.T) {
		addr := startCacheServer(t, func(args []string) string {
			return "$2\r\nok\r\n"
		})

		var sessions []*Session
		store := NewStoreWithDialer(trackingDialer(addr, testOptions(), &sessions), nil, nil)

		_, err := store.FetchKey(context.Background(), "event:1")
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.True(t, sessions[0].closed)
	})
}

func TestStorePing(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		store := storeFor(t, pingPong, nil)
		assert.True(t, store.Ping(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		store := unreachableStore(nil)
		assert.False(t, store.Ping(context.Background()))
	})
}
