package locker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// exercise runs workers that each hold the lock while bumping a counter, and
// reports the highest number of concurrent holders seen.
func exercise(t *testing.T, l Locker, workers int) int32 {
	t.Helper()

	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		maxSeen atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Obtain(context.Background())
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := inside.Add(1)
			for {
				cur := maxSeen.Load()
				if n <= cur || maxSeen.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()
	return maxSeen.Load()
}

func TestLocal_MutualExclusion(t *testing.T) {
	assert.Equal(t, int32(1), exercise(t, NewLocal(), 20))
}

func TestLocal_ContextCancelled(t *testing.T) {
	l := NewLocal()
	release, err := l.Obtain(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Obtain(ctx)
	assert.ErrorIs(t, err, ErrNotObtained)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // second call is a no-op

	again, err := l.Obtain(context.Background())
	require.NoError(t, err)
	again()
}

func TestKeepAlive(t *testing.T) {
	var calls atomic.Int32
	var failures atomic.Int32
	errLost := errors.New("lock lost")

	stop := keepAlive(5*time.Millisecond, func(ctx context.Context) error {
		if calls.Add(1) == 2 {
			return errLost
		}
		return nil
	}, func(err error) {
		assert.ErrorIs(t, err, errLost)
		failures.Add(1)
	})

	require.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, time.Millisecond)
	stop()

	assert.Equal(t, int32(1), failures.Load(), "a failed refresh does not end the loop")
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no refresh after stop")
}

func TestRedis_HeldPastTTL(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	key := "foodstand-test-refresh-" + time.Now().Format("150405.000000")

	holder := NewRedis(client, key, 300*time.Millisecond, logger)
	release, err := holder.Obtain(context.Background())
	require.NoError(t, err)

	time.Sleep(time.Second)

	impatient := NewRedis(client, key, 100*time.Millisecond, logger)
	_, err = impatient.Obtain(context.Background())
	assert.ErrorIs(t, err, ErrNotObtained, "lock expired while still held")

	release()
	again, err := impatient.Obtain(context.Background())
	require.NoError(t, err)
	again()
}

func TestRedis_MutualExclusion(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	key := "foodstand-test-lock-" + time.Now().Format("150405.000000")

	assert.Equal(t, int32(1), exercise(t, NewRedis(client, key, 2*time.Second, logger), 5))

	holder := NewRedis(client, key, 2*time.Second, logger)
	release, err := holder.Obtain(context.Background())
	require.NoError(t, err)
	defer release()

	impatient := NewRedis(client, key, 100*time.Millisecond, logger)
	_, err = impatient.Obtain(context.Background())
	assert.ErrorIs(t, err, ErrNotObtained)
}
