package workers

import (
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"media-helper/internal/logging"
	"media-helper/internal/metrics"
)

// DefaultKeepAlive is how long an idle worker waits for new work before it
// exits.
const DefaultKeepAlive = 10 * time.Second

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// PoolConfig configures a Pool.
type PoolConfig struct {
	// MaxWorkers caps the number of live goroutines (0 = ForIO(0)).
	MaxWorkers int
	// KeepAlive is the idle time after which a worker is reclaimed
	// (0 = DefaultKeepAlive).
	KeepAlive time.Duration
}

// Pool runs submitted functions on a bounded set of goroutines fed from an
// unbounded FIFO queue. Workers are started on demand and exit after
// KeepAlive without work, so an idle pool holds no goroutines.
type Pool struct {
	maxWorkers int
	keepAlive  time.Duration

	mu      sync.Mutex
	queue   []func()
	workers int
	idle    int
	closed  bool
	notify  chan struct{}
	wg      sync.WaitGroup
}

// NewPool creates a Pool. No goroutines are started until work is submitted.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = ForIO(0)
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	return &Pool{
		maxWorkers: cfg.MaxWorkers,
		keepAlive:  cfg.KeepAlive,
		notify:     make(chan struct{}, cfg.MaxWorkers),
	}
}

// Submit enqueues task and returns immediately. It never blocks on a busy
// pool; it fails only when the pool has been closed.
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return errors.New("nil task")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.queue = append(p.queue, task)
	metrics.WorkerPoolQueued.Inc()

	switch {
	case p.idle >= len(p.queue):
		p.wake()
	case p.workers < p.maxWorkers:
		p.workers++
		metrics.WorkerPoolWorkers.Inc()
		p.wg.Add(1)
		go p.worker()
	default:
		p.wake()
	}
	return nil
}

// wake signals one idle worker. Caller holds p.mu.
func (p *Pool) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	timer := time.NewTimer(p.keepAlive)
	defer timer.Stop()

	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			task := p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
			metrics.WorkerPoolQueued.Dec()
			p.mu.Unlock()

			p.run(task)
			continue
		}
		if p.closed {
			p.exitLocked()
			p.mu.Unlock()
			return
		}
		p.idle++
		p.mu.Unlock()

		timer.Reset(p.keepAlive)
		select {
		case <-p.notify:
			p.mu.Lock()
			p.idle--
			p.mu.Unlock()
		case <-timer.C:
			p.mu.Lock()
			p.idle--
			if len(p.queue) == 0 {
				p.exitLocked()
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
		}
	}
}

// exitLocked accounts for a worker leaving. Caller holds p.mu.
func (p *Pool) exitLocked() {
	p.workers--
	metrics.WorkerPoolWorkers.Dec()
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("worker pool task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	metrics.WorkerPoolTasksTotal.Inc()
	task()
}

// Stats returns the number of live workers and queued tasks.
func (p *Pool) Stats() (workers, queued int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers, len(p.queue)
}

// MaxWorkers returns the goroutine cap.
func (p *Pool) MaxWorkers() int { return p.maxWorkers }

// Close stops accepting work, lets queued work drain and waits for every
// worker to exit. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.notify)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

var (
	shared     *Pool
	sharedOnce sync.Once
)

// InitShared creates the process-wide pool with cfg. It should be called once
// at process start, before any scan is submitted; later calls return the
// existing pool unchanged.
func InitShared(cfg PoolConfig) *Pool {
	created := false
	sharedOnce.Do(func() {
		shared = NewPool(cfg)
		created = true
	})
	if created {
		logging.Info("Shared worker pool initialized: max %d workers, keep-alive %v", shared.maxWorkers, shared.keepAlive)
	} else {
		logging.Warn("Shared worker pool already initialized, ignoring new configuration")
	}
	return shared
}

// Shared returns the process-wide pool, initializing it with defaults when
// InitShared was never called. The shared pool lives until process exit.
func Shared() *Pool {
	sharedOnce.Do(func() {
		shared = NewPool(PoolConfig{})
	})
	return shared
}
