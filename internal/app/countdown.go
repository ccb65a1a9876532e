package app

import (
	"context"
	"log"
	"sync"
	"time"
)

// Countdown is the single cancellable background process counting a question
// timer down to zero, one tick per interval. On expiry it invokes the same
// round-scoring path that a manual question advance uses.
//
// Callbacks are invoked while the countdown lock is held. That makes
// supersession airtight: Start and Stop block until any in-flight callback
// returns, and a superseded run re-checks its generation under the lock
// before it may notify or score, so a stale run can never publish over new
// state or score a freshly drawn question. The callbacks must therefore
// never call back into the countdown.
type Countdown struct {
	interval time.Duration
	onChange func(current, initial int, running bool)
	onExpire func()

	mu      sync.Mutex
	current int
	initial int
	running bool
	gen     int
	cancel  context.CancelFunc
}

// NewCountdown builds a countdown ticking once per interval. onChange is
// called with a consistent snapshot after every state change; onExpire is
// called exactly once per run that reaches zero.
func NewCountdown(interval time.Duration, onChange func(current, initial int, running bool), onExpire func()) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{interval: interval, onChange: onChange, onExpire: onExpire}
}

// Start begins a countdown from the given number of seconds, superseding any
// run already in flight: the previous goroutine is cancelled, and its pending
// callbacks either complete before the new state is installed or are skipped
// by the generation check.
func (c *Countdown) Start(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked(seconds)
}

// Gen returns the supersede token for the current run state. Any later Start
// or Stop invalidates it.
func (c *Countdown) Gen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// StartIfGen begins a countdown only if no Start or Stop happened since the
// token was taken, and reports whether it started. Callers that prepare a
// round outside the game lock use this so a concurrent stop or reset cannot
// be trailed by a stale timer start.
func (c *Countdown) StartIfGen(seconds, gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.startLocked(seconds)
	return true
}

func (c *Countdown) startLocked(seconds int) {
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.gen++
	gen := c.gen
	c.current = seconds
	c.initial = seconds
	c.running = seconds > 0

	c.notify(c.current, c.initial, c.running)
	if c.running {
		go c.run(ctx, gen)
		log.Printf("countdown started for %d seconds", seconds)
	}
}

// Stop cancels any in-flight run and zeroes the countdown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.running = false
	c.current = 0
	c.initial = 0
	c.notify(0, 0, false)
}

// Remaining reports the seconds left, used to capture a team's speed-bonus
// snapshot at the moment it submits an answer.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current < 0 {
		return 0
	}
	return c.current
}

// Snapshot returns the current value, initial length, and running flag.
func (c *Countdown) Snapshot() (current, initial int, running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.initial, c.running
}

func (c *Countdown) run(ctx context.Context, gen int) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if gen != c.gen || !c.running {
				c.mu.Unlock()
				return
			}
			c.current--
			expired := c.current <= 0
			if expired {
				c.running = false
			}

			c.notify(c.current, c.initial, c.running)
			if expired {
				log.Printf("countdown reached zero")
				if c.onExpire != nil {
					c.onExpire()
				}
			}
			c.mu.Unlock()

			if expired {
				return
			}
		}
	}
}

func (c *Countdown) notify(current, initial int, running bool) {
	if c.onChange != nil {
		c.onChange(current, initial, running)
	}
}
