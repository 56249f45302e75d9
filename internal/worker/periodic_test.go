package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founders-outreach/internal/pkg/distlock"
)

type stubLock struct{ free bool }

func (l stubLock) Acquire(context.Context) (bool, error) { return l.free, nil }
func (l stubLock) Release(context.Context) error         { return nil }

func TestRunOnce_SkipsWhenLockHeld(t *testing.T) {
	var calls int32
	job := Job{Name: "drip", LockKey: distlock.KeyDrip, Run: func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}}

	held := NewRunner(func(string, time.Duration) distlock.DistLock { return stubLock{free: false} })
	held.RunOnce(context.Background(), job)
	assert.Zero(t, atomic.LoadInt32(&calls))

	free := NewRunner(func(string, time.Duration) distlock.DistLock { return stubLock{free: true} })
	free.RunOnce(context.Background(), job)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRunOnce_JobErrorDoesNotPanic(t *testing.T) {
	r := NewRunner(nil)
	r.RunOnce(context.Background(), Job{Name: "phase", Run: func(context.Context) error {
		return errors.New("member count unavailable")
	}})
}

func TestStart_TicksUntilCancelled(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var calls int32
	r := NewRunner(distlock.NewFactory(client, nil),
		Job{Name: "drip", Interval: 10 * time.Millisecond, LockKey: distlock.KeyDrip, Run: func(context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}},
		Job{Name: "disabled", Interval: 0, Run: func(context.Context) error {
			t.Error("disabled job ran")
			return nil
		}},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.False(t, mr.Exists("outreach:lock:"+distlock.KeyDrip), "lock released after each run")
}
