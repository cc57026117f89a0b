package delivery

import (
	"runtime/debug"
	"sync"

	"media-helper/internal/logging"
	"media-helper/internal/metrics"
)

// Poster accepts units of work for execution on a single-threaded context.
// Work posted by one goroutine runs in post order.
type Poster interface {
	Post(fn func())
}

// Loop is a single goroutine that runs posted functions strictly in the
// order they were posted. Post never blocks.
type Loop struct {
	log logging.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool

	signal chan struct{}
	done   chan struct{}
}

// NewLoop starts a delivery loop. name is used in log messages.
func NewLoop(name string) *Loop {
	l := &Loop{
		log:    logging.For("delivery/" + name),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

// Post enqueues fn. Work posted after Close is dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.log.Warn("dropping callback posted after close")
		return
	}
	l.queue = append(l.queue, fn)
	metrics.DeliveryQueued.Inc()
	// signal is closed under mu, so the send must happen under it too.
	select {
	case l.signal <- struct{}{}:
	default:
	}
	l.mu.Unlock()
}

// Sync blocks until everything posted before the call has run.
// It must not be called from inside the loop.
func (l *Loop) Sync() {
	ch := make(chan struct{})
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.mu.Unlock()

	l.Post(func() { close(ch) })
	select {
	case <-ch:
	case <-l.done:
	}
}

// Close stops accepting work, runs what is already queued and waits for the
// loop goroutine to exit. It must not be called from inside the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.signal)
	}
	l.mu.Unlock()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		_, open := <-l.signal

		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		for i, fn := range batch {
			batch[i] = nil
			metrics.DeliveryQueued.Dec()
			l.invoke(fn)
		}

		if !open {
			l.mu.Lock()
			empty := len(l.queue) == 0
			l.mu.Unlock()
			if empty {
				return
			}
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.DeliveryPanics.Inc()
			l.log.Error("callback panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

var (
	shared     *Loop
	sharedOnce sync.Once
)

// Shared returns the process-wide delivery loop, starting it on first use.
// It plays the role of the application's main loop and is never closed.
func Shared() *Loop {
	sharedOnce.Do(func() {
		shared = NewLoop("main")
	})
	return shared
}
