package mediabutton

import (
	"sync"
	"time"

	"media-helper/internal/delivery"
	"media-helper/internal/metrics"
)

// DefaultClickInterval is the longest gap between two clicks of one
// multi-click.
const DefaultClickInterval = 300 * time.Millisecond

// ClickOption customizes a ClickCounter.
type ClickOption func(*ClickCounter)

// WithPoster delivers click counts on p instead of the timer goroutine.
func WithPoster(p delivery.Poster) ClickOption {
	return func(c *ClickCounter) { c.poster = p }
}

// ClickCounter folds a run of events into one count. Each PutEvent restarts
// the countdown; when interval passes without another event the handler
// receives the number of events and the count starts over.
//
// The owner must call Close when done. Once Close returns the handler is
// not called again.
type ClickCounter struct {
	interval time.Duration
	handler  func(count int)
	poster   delivery.Poster

	mu     sync.Mutex
	count  int
	gen    uint64
	timer  *time.Timer
	closed bool

	inflight sync.WaitGroup
}

// NewClickCounter returns a counter calling handler with the aggregated
// count. A non-positive interval selects DefaultClickInterval. It panics if
// handler is nil.
func NewClickCounter(interval time.Duration, handler func(count int), opts ...ClickOption) *ClickCounter {
	if handler == nil {
		panic("mediabutton: nil click handler")
	}
	if interval <= 0 {
		interval = DefaultClickInterval
	}
	c := &ClickCounter{interval: interval, handler: handler}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Interval returns the quiet period that ends a run.
func (c *ClickCounter) Interval() time.Duration { return c.interval }

// PutEvent records one event and re-arms the countdown. It is a no-op after
// Close.
func (c *ClickCounter) PutEvent() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.count++
	c.rearmLocked()
}

// Reset discards the pending run without delivering it.
func (c *ClickCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.count = 0
}

// Pending reports the number of events in the current run.
func (c *ClickCounter) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Close cancels any pending countdown and waits for a delivery already in
// progress on the timer goroutine. It must not be called from the handler
// unless WithPoster is used.
func (c *ClickCounter) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopLocked()
	c.count = 0
	c.mu.Unlock()

	c.inflight.Wait()
}

func (c *ClickCounter) rearmLocked() {
	c.stopLocked()
	gen := c.gen
	c.timer = time.AfterFunc(c.interval, func() { c.fire(gen) })
}

// stopLocked cancels the armed timer. Bumping the generation makes a timer
// that already fired but has not taken the lock yet a no-op.
func (c *ClickCounter) stopLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *ClickCounter) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || c.count == 0 {
		c.mu.Unlock()
		return
	}
	n := c.count
	c.count = 0
	c.timer = nil
	if c.poster == nil {
		c.inflight.Add(1)
	}
	c.mu.Unlock()

	metrics.HookClicksDelivered.Observe(float64(n))

	if c.poster != nil {
		c.poster.Post(func() {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.handler(n)
			}
		})
		return
	}

	defer c.inflight.Done()
	c.handler(n)
}
