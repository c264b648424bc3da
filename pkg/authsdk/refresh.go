package authsdk

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// DefaultRefreshInterval renews the ID token ten minutes before the
// backend's one hour expiry.
const DefaultRefreshInterval = 50 * time.Minute

// TokenRefresher forces an ID token refresh. Backend satisfies it.
type TokenRefresher interface {
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
}

// RefreshTimer periodically forces a token refresh in the background.
// At most one ticker runs at a time: Start always stops the previous one.
type RefreshTimer struct {
	refresher TokenRefresher
	logger    *slog.Logger
	interval  time.Duration
	metrics   Metrics

	mu     sync.Mutex
	stopCh chan struct{}

	// live counts running ticker goroutines
	live atomic.Int32
}

// NewRefreshTimer creates a stopped timer. A non-positive interval falls
// back to DefaultRefreshInterval.
func NewRefreshTimer(refresher TokenRefresher, logger *slog.Logger, interval time.Duration) *RefreshTimer {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slogx.Discard()
	}

	return &RefreshTimer{
		refresher: refresher,
		logger:    logger,
		interval:  interval,
		metrics:   nopMetrics{},
	}
}

// Interval returns the tick period.
func (t *RefreshTimer) Interval() time.Duration { return t.interval }

// Start begins ticking, replacing any running ticker.
func (t *RefreshTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	stop := make(chan struct{})
	t.stopCh = stop
	t.live.Add(1)
	go t.run(stop)

	t.logger.Debug("token auto-refresh started", "interval", t.interval)
}

// Stop halts the ticker. It is safe to call when stopped and from any
// goroutine, including a refresh callback; an in-flight refresh has its
// context cancelled and finishes on its own.
func (t *RefreshTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopLocked() {
		t.logger.Debug("token auto-refresh stopped")
	}
}

// Active reports whether a ticker is scheduled.
func (t *RefreshTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopCh != nil
}

func (t *RefreshTimer) stopLocked() bool {
	if t.stopCh == nil {
		return false
	}
	close(t.stopCh)
	t.stopCh = nil
	return true
}

func (t *RefreshTimer) run(stop <-chan struct{}) {
	defer t.live.Add(-1)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			t.tick(stop)
		case <-stop:
			return
		}
	}
}

// tick forces one refresh. Failures are logged and swallowed: a background
// refresh never changes session state.
func (t *RefreshTimer) tick(stop <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := t.refresher.IDToken(ctx, true); err != nil {
		t.logger.Error("token refresh failed", "error", err)
		t.metrics.RecordRefresh(RefreshTriggerTimer, false)
		return
	}

	t.logger.Debug("token refreshed")
	t.metrics.RecordRefresh(RefreshTriggerTimer, true)
}
