package mediastore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// memStore is an in-memory RecordStore for pipeline tests.
type memStore struct {
	mu      sync.Mutex
	rows    []map[string]any
	err     error
	noRows  bool
	queries []Query
	cursors []*memCursor
}

func newMemStore(n int) *memStore {
	s := &memStore{}
	for i := 1; i <= n; i++ {
		s.rows = append(s.rows, map[string]any{
			ColumnID:          int64(i),
			ColumnDisplayName: fmt.Sprintf("file%d.mp3", i),
		})
	}
	return s
}

func (s *memStore) Query(_ context.Context, q Query) (Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	if s.noRows {
		return nil, nil
	}
	c := &memCursor{rows: s.rows, pos: -1}
	s.cursors = append(s.cursors, c)
	return c, nil
}

func (s *memStore) lastQuery() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[len(s.queries)-1]
}

type memCursor struct {
	rows   []map[string]any
	pos    int
	closed bool
}

func (c *memCursor) Count() int   { return len(c.rows) }
func (c *memCursor) Err() error   { return nil }
func (c *memCursor) Close() error { c.closed = true; return nil }

func (c *memCursor) Next() bool {
	if c.pos+1 >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *memCursor) value(column string) (any, error) {
	v, ok := c.rows[c.pos][column]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	return v, nil
}

func (c *memCursor) String(column string) (string, error) {
	v, err := c.value(column)
	if err != nil || v == nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.New("not a string")
	}
	return s, nil
}

func (c *memCursor) Int64(column string) (int64, error) {
	v, err := c.value(column)
	if err != nil || v == nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, errors.New("not an integer")
	}
	return n, nil
}

func (c *memCursor) Float64(column string) (float64, error) {
	v, err := c.value(column)
	if err != nil || v == nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, errors.New("not a float")
	}
	return f, nil
}

// manualPool queues submitted tasks until the test runs them.
type manualPool struct {
	mu    sync.Mutex
	tasks []func()
	err   error
}

func (p *manualPool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *manualPool) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// runAll runs queued tasks on the calling goroutine.
func (p *manualPool) runAll() {
	for {
		p.mu.Lock()
		if len(p.tasks) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.tasks[0]
		p.tasks = p.tasks[1:]
		p.mu.Unlock()
		task()
	}
}

// inline runs posted callbacks immediately.
type inline struct{}

func (inline) Post(fn func()) { fn() }

type event struct {
	kind  string
	index int
	total int
	item  int64
	items []int64
	err   error
	at    time.Time
}

// recorder is a Callback[int64] that records every event.
type recorder struct {
	mu     sync.Mutex
	events []event
	done   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{})}
}

func (r *recorder) add(e event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.at = time.Now()
	r.events = append(r.events, e)
}

func (r *recorder) OnStartScan() { r.add(event{kind: "start"}) }

func (r *recorder) OnUpdateProgress(index, total int, item int64) {
	r.add(event{kind: "progress", index: index, total: total, item: item})
}

func (r *recorder) OnFinished(items []int64) {
	r.add(event{kind: "finished", items: items})
	close(r.done)
}

func (r *recorder) OnScanError(err error) { r.add(event{kind: "error", err: err}) }

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

func (r *recorder) count(kind string) int {
	n := 0
	for _, e := range r.snapshot() {
		if e.kind == kind {
			n++
		}
	}
	return n
}

var idDecoder = DecoderFunc[int64](ID)
