package services

import (
	"context"
	"sync"
	"time"
)

// Countdown is the exam timer. It reports the remaining time on every tick
// and calls onExpire once when the duration runs out, unless stopped first.
type Countdown struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func StartCountdown(duration, tick time.Duration, onTick func(remaining time.Duration), onExpire func()) *Countdown {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Countdown{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(c.done)

		deadline := time.Now().Add(duration)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		timer := time.NewTimer(duration)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if onExpire != nil {
					onExpire()
				}
				return
			case now := <-ticker.C:
				if onTick != nil {
					onTick(max(deadline.Sub(now), 0))
				}
			}
		}
	}()

	return c
}

// Stop cancels the countdown. Safe to call more than once and from within
// the callbacks.
func (c *Countdown) Stop() {
	c.once.Do(c.cancel)
}

// Done is closed once the countdown has expired or been stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
