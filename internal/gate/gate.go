package gate

import (
	"context"
	"sync"
	"time"

	"github.com/epeers/marketsync/internal/syncerr"
)

// AlphaVantage premium keys allow 75 requests per minute. The gate spaces
// requests a little tighter than that and backs off with a penalty when a
// caller comes back too quickly.
const (
	DefaultMinInterval = 350 * time.Millisecond
	DefaultPenalty     = time.Second
	DefaultCeiling     = 50
)

// Gate enforces a minimum spacing between outbound requests and a cumulative
// error ceiling for one sync run.
type Gate struct {
	mu            sync.Mutex
	minInterval   time.Duration
	penalty       time.Duration
	ceiling       int
	lastRequestAt time.Time
	errorCount    int
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

// Option configures a Gate.
type Option func(*Gate)

func WithMinInterval(d time.Duration) Option {
	return func(g *Gate) { g.minInterval = d }
}

// WithPenalty sets the sleep used when a request arrives inside the minimum
// interval. Zero disables the penalty and Wait sleeps only the remainder.
func WithPenalty(d time.Duration) Option {
	return func(g *Gate) { g.penalty = d }
}

func WithCeiling(n int) Option {
	return func(g *Gate) { g.ceiling = n }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gate) { g.sleep = sleep }
}

// New creates a Gate with the default interval, penalty and ceiling.
func New(opts ...Option) *Gate {
	g := &Gate{
		minInterval: DefaultMinInterval,
		penalty:     DefaultPenalty,
		ceiling:     DefaultCeiling,
		now:         time.Now,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Allow returns how long the caller must wait before the next request:
// max(0, minInterval - (now - lastRequestAt)).
func (g *Gate) Allow() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allowLocked()
}

func (g *Gate) allowLocked() time.Duration {
	if g.lastRequestAt.IsZero() {
		return 0
	}
	wait := g.minInterval - g.now().Sub(g.lastRequestAt)
	if wait < 0 {
		return 0
	}
	return wait
}

// Wait sleeps until the next request is allowed and returns the time slept.
func (g *Gate) Wait(ctx context.Context) (time.Duration, error) {
	g.mu.Lock()
	wait := g.allowLocked()
	if wait > 0 && g.penalty > wait {
		wait = g.penalty
	}
	g.mu.Unlock()

	if wait == 0 {
		return 0, ctx.Err()
	}
	if err := g.sleep(ctx, wait); err != nil {
		return 0, err
	}
	return wait, nil
}

// MarkRequest records that a request just completed.
func (g *Gate) MarkRequest() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastRequestAt = g.now()
}

// RecordError counts a failed request and returns a CircuitOpen error once
// the count exceeds the ceiling.
func (g *Gate) RecordError() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errorCount++
	if g.errorCount > g.ceiling {
		return syncerr.CircuitOpenError(g.errorCount)
	}
	return nil
}

// RecordSuccess is a no-op on the error count: the ceiling is cumulative for
// the whole run, not a rolling window.
func (g *Gate) RecordSuccess() {}

func (g *Gate) ErrorCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errorCount
}

func (g *Gate) Ceiling() int {
	return g.ceiling
}
