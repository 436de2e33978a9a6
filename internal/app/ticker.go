package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Type-PrAsH/SchedWise/internal/platform/correlation"
	"github.com/jonboulle/clockwork"
)

const defaultTickInterval = time.Minute

// MinuteTicker calls fn once per interval while started. It can be stopped
// and started again any number of times. Stop never blocks, so it is safe to
// call while holding a lock that fn also takes; a tick that races with Stop
// may still run once and must tolerate finding nothing to do.
type MinuteTicker struct {
	clock    clockwork.Clock
	interval time.Duration
	fn       func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMinuteTicker(clock clockwork.Clock, interval time.Duration, fn func(ctx context.Context)) *MinuteTicker {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &MinuteTicker{clock: clock, interval: interval, fn: fn}
}

// Start launches the loop. It is a no-op when the ticker is already running.
func (t *MinuteTicker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.cancel = cancel
	ticker := t.clock.NewTicker(t.interval)

	t.wg.Go(func() {
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.Chan():
				tickCtx := correlation.WithID(loopCtx, correlation.NewID())
				slog.DebugContext(tickCtx, "Minute tick")
				t.fn(tickCtx)
			}
		}
	})
}

// Stop cancels the loop without waiting for it to exit.
func (t *MinuteTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *MinuteTicker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Wait blocks until every loop started so far has exited.
func (t *MinuteTicker) Wait() {
	t.wg.Wait()
}
