package workers

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(PoolConfig{MaxWorkers: 4, KeepAlive: time.Second})
	defer p.Close()

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()

	if got := ran.Load(); got != 100 {
		t.Errorf("ran %d tasks, want 100", got)
	}
}

func TestPoolSubmitDoesNotBlock(t *testing.T) {
	p := NewPool(PoolConfig{MaxWorkers: 1, KeepAlive: time.Second})

	release := make(chan struct{})
	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := p.Submit(func() { <-release }); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Submit blocked for %v with a busy pool", elapsed)
	}

	if workers, queued := p.Stats(); workers != 1 || queued < 48 {
		t.Errorf("Stats() = (%d, %d), want one worker and a long queue", workers, queued)
	}

	close(release)
	p.Close()
}

func TestPoolRespectsMaxWorkers(t *testing.T) {
	const maxWorkers = 3
	p := NewPool(PoolConfig{MaxWorkers: maxWorkers, KeepAlive: time.Second})
	defer p.Close()

	var current, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		_ = p.Submit(func() {
			defer wg.Done()
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
		})
	}
	wg.Wait()

	if got := peak.Load(); got > maxWorkers {
		t.Errorf("peak concurrency %d exceeds MaxWorkers %d", got, maxWorkers)
	}
	if got := peak.Load(); got < 2 {
		t.Errorf("peak concurrency %d, expected tasks to run in parallel", got)
	}
}

func TestPoolReclaimsIdleWorkers(t *testing.T) {
	p := NewPool(PoolConfig{MaxWorkers: 2, KeepAlive: 20 * time.Millisecond})
	defer p.Close()

	done := make(chan struct{})
	_ = p.Submit(func() { close(done) })
	<-done

	waitFor(t, 2*time.Second, func() bool {
		workers, _ := p.Stats()
		return workers == 0
	})

	// The pool keeps working after its workers were reclaimed.
	again := make(chan struct{})
	_ = p.Submit(func() { close(again) })
	select {
	case <-again:
	case <-time.After(2 * time.Second):
		t.Fatal("task submitted after reclaim never ran")
	}
}

func TestPoolCloseDrainsQueue(t *testing.T) {
	p := NewPool(PoolConfig{MaxWorkers: 1, KeepAlive: time.Second})

	var ran atomic.Int64
	for i := 0; i < 20; i++ {
		_ = p.Submit(func() {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		})
	}
	p.Close()

	if got := ran.Load(); got != 20 {
		t.Errorf("Close returned with %d/20 tasks run", got)
	}
	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Submit after Close = %v, want ErrPoolClosed", err)
	}
	p.Close() // second close is a no-op
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	p := NewPool(PoolConfig{MaxWorkers: 1, KeepAlive: time.Second})
	defer p.Close()

	_ = p.Submit(func() { panic("boom") })

	done := make(chan struct{})
	_ = p.Submit(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool stopped after a task panicked")
	}
}

func TestPoolRejectsNilTask(t *testing.T) {
	p := NewPool(PoolConfig{MaxWorkers: 1})
	defer p.Close()

	if err := p.Submit(nil); err == nil {
		t.Error("Submit(nil) should fail")
	}
}

func TestSharedIsSingleton(t *testing.T) {
	a := Shared()
	b := Shared()
	if a != b {
		t.Fatal("Shared() returned different pools")
	}
	if c := InitShared(PoolConfig{MaxWorkers: 1}); c != a {
		t.Error("InitShared after Shared() must return the existing pool")
	}
}
