package app_test

import (
	"sync"
	"testing"
	"time"

	"home-trivia-service/internal/app"
)

// recorder collects countdown callbacks so tests can assert on them after
// the goroutine finishes.
type recorder struct {
	mu      sync.Mutex
	values  []int
	expired int
	done    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) onChange(current, initial int, running bool) {
	r.mu.Lock()
	r.values = append(r.values, current)
	r.mu.Unlock()
}

func (r *recorder) onExpire() {
	r.mu.Lock()
	r.expired++
	expired := r.expired
	r.mu.Unlock()
	if expired == 1 {
		close(r.done)
	}
}

func (r *recorder) expiries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expired
}

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	rec := newRecorder()
	c := app.NewCountdown(2*time.Millisecond, rec.onChange, rec.onExpire)

	c.Start(3)

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never expired")
	}

	// Give a stray second firing a chance to show up.
	time.Sleep(20 * time.Millisecond)
	if got := rec.expiries(); got != 1 {
		t.Fatalf("expected exactly one expiry, got %d", got)
	}
	if remaining := c.Remaining(); remaining != 0 {
		t.Fatalf("expected zero remaining, got %d", remaining)
	}
}

func TestCountdownRestartSupersedes(t *testing.T) {
	rec := newRecorder()
	c := app.NewCountdown(time.Hour, rec.onChange, rec.onExpire)
	defer c.Stop()

	c.Start(10)
	if got := c.Remaining(); got != 10 {
		t.Fatalf("expected 10 remaining, got %d", got)
	}

	c.Start(5)
	if got := c.Remaining(); got != 5 {
		t.Fatalf("expected restart at 5, got %d", got)
	}

	current, initial, running := c.Snapshot()
	if current != 5 || initial != 5 || !running {
		t.Fatalf("unexpected snapshot: current=%d initial=%d running=%v", current, initial, running)
	}
}

func TestCountdownRestartDuringExpiryWaitsForCallback(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	expiries := 0

	c := app.NewCountdown(2*time.Millisecond, nil, func() {
		mu.Lock()
		expiries++
		first := expiries == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
	})
	defer c.Stop()

	c.Start(1)
	<-entered // the run is inside its expiry callback

	restarted := make(chan struct{})
	go func() {
		c.Start(30)
		close(restarted)
	}()

	// The restart must not install new state while the callback is running.
	select {
	case <-restarted:
		t.Fatal("restart completed while the expiry callback was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-restarted:
	case <-time.After(2 * time.Second):
		t.Fatal("restart never completed")
	}

	// After the restart returns, only the new run may touch the state, and
	// the superseded run may never expire again.
	time.Sleep(20 * time.Millisecond)
	current, initial, running := c.Snapshot()
	if initial != 30 || !running || current <= 0 {
		t.Fatalf("expected the new run counting from 30, got current=%d initial=%d running=%v", current, initial, running)
	}
	mu.Lock()
	defer mu.Unlock()
	if expiries != 1 {
		t.Fatalf("expected exactly one expiry, got %d", expiries)
	}
}

func TestCountdownStartIfGenRefusesStaleToken(t *testing.T) {
	c := app.NewCountdown(time.Hour, nil, nil)

	gen := c.Gen()
	c.Stop() // a stop or reset between token and start invalidates it
	if c.StartIfGen(10, gen) {
		t.Fatal("expected a stale token to be refused")
	}
	if _, _, running := c.Snapshot(); running {
		t.Fatal("expected the countdown to stay stopped")
	}

	gen = c.Gen()
	if !c.StartIfGen(10, gen) {
		t.Fatal("expected a fresh token to start")
	}
	defer c.Stop()
	if got := c.Remaining(); got != 10 {
		t.Fatalf("expected 10 remaining, got %d", got)
	}
}

func TestCountdownStopCancelsRun(t *testing.T) {
	rec := newRecorder()
	c := app.NewCountdown(2*time.Millisecond, rec.onChange, rec.onExpire)

	c.Start(1000)
	c.Stop()

	current, initial, running := c.Snapshot()
	if current != 0 || initial != 0 || running {
		t.Fatalf("expected stopped zero state, got current=%d initial=%d running=%v", current, initial, running)
	}

	time.Sleep(20 * time.Millisecond)
	if got := rec.expiries(); got != 0 {
		t.Fatalf("expected no expiry after stop, got %d", got)
	}
}
