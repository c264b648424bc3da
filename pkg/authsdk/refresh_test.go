package authsdk

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls  atomic.Int32
	forced atomic.Int32
	err    error
	onCall func()
}

func (r *countingRefresher) IDToken(_ context.Context, forceRefresh bool) (string, error) {
	r.calls.Add(1)
	if forceRefresh {
		r.forced.Add(1)
	}
	if r.onCall != nil {
		r.onCall()
	}
	if r.err != nil {
		return "", r.err
	}
	return "token", nil
}

func TestRefreshTimer_DefaultInterval(t *testing.T) {
	t.Parallel()

	timer := NewRefreshTimer(&countingRefresher{}, nil, 0)
	require.Equal(t, 50*time.Minute, timer.Interval())
	require.Equal(t, DefaultRefreshInterval, timer.Interval())
	require.False(t, timer.Active())
}

func TestRefreshTimer_StartTwiceKeepsOneTicker(t *testing.T) {
	t.Parallel()

	refresher := &countingRefresher{}
	timer := NewRefreshTimer(refresher, nil, 10*time.Millisecond)
	t.Cleanup(timer.Stop)

	timer.Start()
	timer.Start()

	require.True(t, timer.Active())
	require.Eventually(t, func() bool { return timer.live.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return refresher.forced.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestRefreshTimer_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	refresher := &countingRefresher{}
	timer := NewRefreshTimer(refresher, nil, 10*time.Millisecond)

	timer.Stop()
	timer.Start()
	timer.Stop()
	timer.Stop()

	require.False(t, timer.Active())
	require.Eventually(t, func() bool { return timer.live.Load() == 0 }, time.Second, 5*time.Millisecond)

	calls := refresher.calls.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, calls, refresher.calls.Load(), "no ticks after stop")
}

func TestRefreshTimer_FailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	refresher := &countingRefresher{err: errors.New("refresh rejected")}
	timer := NewRefreshTimer(refresher, nil, 10*time.Millisecond)
	t.Cleanup(timer.Stop)

	timer.Start()

	require.Eventually(t, func() bool { return refresher.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.True(t, timer.Active())
}

func TestRefreshTimer_StopFromTick(t *testing.T) {
	t.Parallel()

	refresher := &countingRefresher{}
	timer := NewRefreshTimer(refresher, nil, 10*time.Millisecond)
	refresher.onCall = timer.Stop

	timer.Start()

	require.Eventually(t, func() bool { return !timer.Active() && timer.live.Load() == 0 }, time.Second, 5*time.Millisecond)
	require.EqualValues(t, 1, refresher.calls.Load())
}

func TestRefreshTimer_ConcurrentStartStop(t *testing.T) {
	t.Parallel()

	timer := NewRefreshTimer(&countingRefresher{}, nil, time.Hour)
	t.Cleanup(timer.Stop)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			timer.Start()
		}()
		go func() {
			defer wg.Done()
			timer.Stop()
		}()
	}
	wg.Wait()

	timer.Start()
	require.Eventually(t, func() bool { return timer.live.Load() == 1 }, time.Second, 5*time.Millisecond)

	timer.Stop()
	require.Eventually(t, func() bool { return timer.live.Load() == 0 }, time.Second, 5*time.Millisecond)
}
