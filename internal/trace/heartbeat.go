package trace

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Heartbeat periodically emits liveness events so a stuck build shows up as
// heartbeats without span ends.
type Heartbeat struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// StartHeartbeat runs until ctx is done or Stop is called. Returns nil when
// tracing is disabled or interval is not positive.
func StartHeartbeat(ctx context.Context, t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Heartbeat{cancel: cancel}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				t.Emit(&Event{
					Time:   now,
					Kind:   KindHeartbeat,
					Scope:  ScopeDriver,
					Name:   "heartbeat",
					Detail: fmt.Sprintf("#%d", n),
				})
			}
		}
	}()
	return h
}

// Stop ends the goroutine and waits for it.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.cancel()
	h.wg.Wait()
}
