package session

import (
	"context"
	"sync"
	"time"
)

// DefaultTimerInterval is how often the expiry timer samples the clock.
const DefaultTimerInterval = 100 * time.Millisecond

// ExpiryTimer samples a controller in the background and sets its expiry
// flag. It touches nothing but the controller's clock and flag.
type ExpiryTimer struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartExpiryTimer launches the watchdog. It exits on expiry, Stop or ctx.
func StartExpiryTimer(ctx context.Context, c *Controller, interval time.Duration) *ExpiryTimer {
	if interval <= 0 {
		interval = DefaultTimerInterval
	}
	t := &ExpiryTimer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			case <-ticker.C:
				if _, expired := c.Tick(c.clock.Now()); expired {
					return
				}
			}
		}
	}()
	return t
}

// Stop ends the watchdog and waits for it to exit. Safe to call twice.
func (t *ExpiryTimer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.done
}

// Done is closed once the watchdog goroutine has exited.
func (t *ExpiryTimer) Done() <-chan struct{} { return t.done }
