package mediastore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"media-helper/internal/delivery"
	"media-helper/internal/logging"
	"media-helper/internal/mediatypes"
	"media-helper/internal/metrics"
	"media-helper/internal/workers"
)

const (
	// DefaultUpdateThrottle is the minimum spacing between progress
	// deliveries when none is configured.
	DefaultUpdateThrottle = 100 * time.Millisecond
	// MinUpdateThrottle is the smallest accepted throttle; smaller values
	// are raised to it.
	MinUpdateThrottle = 10 * time.Millisecond
)

var log = logging.For("scanner")

// Submitter runs a unit of work asynchronously. *workers.Pool implements it.
type Submitter interface {
	Submit(task func()) error
}

// Option customizes a Scanner at construction.
type Option func(*options)

type options struct {
	pool   Submitter
	poster delivery.Poster
	ctx    context.Context
}

// WithPool runs scans on p instead of workers.Shared().
func WithPool(p Submitter) Option {
	return func(o *options) { o.pool = p }
}

// WithPoster delivers callbacks on p instead of delivery.Shared().
func WithPoster(p delivery.Poster) Option {
	return func(o *options) { o.poster = p }
}

// WithContext sets the parent context of every store query.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Request is the immutable snapshot of a scanner's configuration taken when
// a scan starts.
type Request struct {
	Category       mediatypes.Category
	Projection     []string
	Selection      string
	SelectionArgs  []any
	SortOrder      string
	UpdateThrottle time.Duration
}

// Query converts the request into a store query.
func (r Request) Query() Query {
	return Query{
		Category:      r.Category,
		Projection:    r.Projection,
		Selection:     r.Selection,
		SelectionArgs: r.SelectionArgs,
		SortOrder:     r.SortOrder,
	}
}

// Scanner enumerates one media category of a RecordStore on a worker pool
// and reports to a Callback on a delivery Poster. A Scanner runs at most one
// scan at a time. Once cancelled it stays cancelled; create a new Scanner
// to scan again.
type Scanner[T any] struct {
	category mediatypes.Category
	store    RecordStore
	decoder  Decoder[T]
	pool     Submitter
	poster   delivery.Poster
	ctx      context.Context

	// postMu orders one scan's OnFinished before the next scan's OnStartScan.
	postMu sync.Mutex

	mu         sync.Mutex
	req        Request
	running    bool
	finished   bool
	cancelled  bool
	lastUpdate time.Time
	stopQuery  context.CancelFunc
}

// ScanAudio returns a Scanner over audio records.
func ScanAudio[T any](store RecordStore, decoder Decoder[T], opts ...Option) (*Scanner[T], error) {
	return NewScanner(mediatypes.CategoryAudio, store, decoder, opts...)
}

// ScanVideo returns a Scanner over video records.
func ScanVideo[T any](store RecordStore, decoder Decoder[T], opts ...Option) (*Scanner[T], error) {
	return NewScanner(mediatypes.CategoryVideo, store, decoder, opts...)
}

// ScanImages returns a Scanner over image records.
func ScanImages[T any](store RecordStore, decoder Decoder[T], opts ...Option) (*Scanner[T], error) {
	return NewScanner(mediatypes.CategoryImage, store, decoder, opts...)
}

// NewScanner returns a Scanner over the given category.
func NewScanner[T any](category mediatypes.Category, store RecordStore, decoder Decoder[T], opts ...Option) (*Scanner[T], error) {
	switch category {
	case mediatypes.CategoryAudio, mediatypes.CategoryVideo, mediatypes.CategoryImage:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if store == nil {
		return nil, ErrNilStore
	}
	if decoder == nil {
		return nil, ErrNilDecoder
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pool == nil {
		o.pool = workers.Shared()
	}
	if o.poster == nil {
		o.poster = delivery.Shared()
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}

	return &Scanner[T]{
		category: category,
		store:    store,
		decoder:  decoder,
		pool:     o.pool,
		poster:   o.poster,
		ctx:      o.ctx,
		req: Request{
			Category:       category,
			UpdateThrottle: DefaultUpdateThrottle,
		},
	}, nil
}

// Projection sets the columns to fetch. No columns means all of them.
func (s *Scanner[T]) Projection(columns ...string) *Scanner[T] {
	s.mu.Lock()
	s.req.Projection = slices.Clone(columns)
	s.mu.Unlock()
	return s
}

// Selection sets the filter expression.
func (s *Scanner[T]) Selection(selection string) *Scanner[T] {
	s.mu.Lock()
	s.req.Selection = selection
	s.mu.Unlock()
	return s
}

// SelectionArgs sets the values bound to the selection placeholders.
func (s *Scanner[T]) SelectionArgs(args ...any) *Scanner[T] {
	s.mu.Lock()
	s.req.SelectionArgs = slices.Clone(args)
	s.mu.Unlock()
	return s
}

// SortOrder sets the ordering expression.
func (s *Scanner[T]) SortOrder(order string) *Scanner[T] {
	s.mu.Lock()
	s.req.SortOrder = order
	s.mu.Unlock()
	return s
}

// UpdateThrottle sets the minimum spacing between progress deliveries.
// Values below MinUpdateThrottle are raised to it.
func (s *Scanner[T]) UpdateThrottle(d time.Duration) *Scanner[T] {
	s.mu.Lock()
	s.req.UpdateThrottle = max(d, MinUpdateThrottle)
	s.mu.Unlock()
	return s
}

// Category reports the category the scanner enumerates.
func (s *Scanner[T]) Category() mediatypes.Category { return s.category }

// Running reports whether a scan has been claimed and not yet finished.
func (s *Scanner[T]) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Finished reports whether the last scan delivered its result.
func (s *Scanner[T]) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Cancelled reports whether Cancel has been called.
func (s *Scanner[T]) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// LastUpdate returns the time of the last delivered progress event.
func (s *Scanner[T]) LastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}

// Cancel asks the current scan to stop after the row being decoded. It may
// be called from any goroutine at any time and never blocks. Callbacks that
// were already posted are still delivered.
func (s *Scanner[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	if s.stopQuery != nil {
		s.stopQuery()
	}
}

// Scan starts an asynchronous scan reporting to cb and returns immediately.
// It fails with ErrScanRunning while an earlier scan is in flight.
func (s *Scanner[T]) Scan(cb Callback[T]) error {
	if cb == nil {
		return ErrNilCallback
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrScanRunning
	}
	s.running = true
	s.finished = false
	req := s.req
	s.mu.Unlock()

	id := uuid.NewString()
	if err := s.pool.Submit(func() { s.run(id, req, cb) }); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("submit %s scan: %w", s.category, err)
	}
	return nil
}

func (s *Scanner[T]) run(id string, req Request, cb Callback[T]) {
	cat := string(s.category)

	ctx, stop := context.WithCancel(s.ctx)
	defer stop()

	s.mu.Lock()
	if s.cancelled {
		s.running = false
		s.mu.Unlock()
		log.Debug("scan %s (%s) cancelled before start", id, cat)
		metrics.ScansTotal.WithLabelValues(cat, metrics.OutcomeAborted).Inc()
		return
	}
	s.stopQuery = stop
	s.mu.Unlock()

	start := time.Now()
	metrics.ScansRunning.WithLabelValues(cat).Inc()
	defer metrics.ScansRunning.WithLabelValues(cat).Dec()

	log.Debug("scan %s (%s) started", id, cat)
	s.postMu.Lock()
	s.poster.Post(cb.OnStartScan)
	s.postMu.Unlock()

	items, outcome := s.collect(ctx, id, req, cb)

	s.postMu.Lock()
	s.mu.Lock()
	s.finished = true
	s.running = false
	s.stopQuery = nil
	s.mu.Unlock()
	s.poster.Post(func() { cb.OnFinished(items) })
	s.postMu.Unlock()

	elapsed := time.Since(start)
	metrics.ScansTotal.WithLabelValues(cat, outcome).Inc()
	metrics.ScanDuration.WithLabelValues(cat).Observe(elapsed.Seconds())
	log.Info("scan %s (%s) %s: %d items in %v", id, cat, outcome, len(items), elapsed)
}

// collect runs the query and decodes rows until the cursor is exhausted,
// the scan is cancelled or a row fails to decode.
func (s *Scanner[T]) collect(ctx context.Context, id string, req Request, cb Callback[T]) ([]T, string) {
	cat := string(s.category)

	cursor, err := s.store.Query(ctx, req.Query())
	if err != nil {
		if s.Cancelled() {
			return []T{}, metrics.OutcomeCancelled
		}
		log.Error("scan %s (%s) query failed: %v", id, cat, err)
		s.report(cb, fmt.Errorf("query %s: %w", cat, err))
		return []T{}, metrics.OutcomeFailed
	}
	if cursor == nil {
		return []T{}, metrics.OutcomeCompleted
	}
	defer func() {
		if err := cursor.Close(); err != nil {
			log.Warn("scan %s (%s) closing cursor: %v", id, cat, err)
		}
	}()

	total := cursor.Count()
	if total <= 0 {
		return []T{}, metrics.OutcomeCompleted
	}

	items := make([]T, 0, total)
	throttle := rate.Sometimes{Interval: req.UpdateThrottle}
	outcome := metrics.OutcomeCompleted

	for len(items) < total && cursor.Next() {
		item, err := s.decoder.Decode(cursor)
		if err != nil {
			derr := &DecodeError{Index: len(items) + 1, Err: err}
			log.Error("scan %s (%s) aborted: %v", id, cat, derr)
			metrics.ScanDecodeErrors.WithLabelValues(cat).Inc()
			s.report(cb, derr)
			return items, metrics.OutcomeFailed
		}
		items = append(items, item)
		metrics.ScanItemsDecoded.WithLabelValues(cat).Inc()

		s.progress(&throttle, cb, len(items), total, item)

		if s.Cancelled() {
			outcome = metrics.OutcomeCancelled
			break
		}
	}

	if outcome == metrics.OutcomeCompleted {
		if err := cursor.Err(); err != nil {
			if s.Cancelled() {
				return items, metrics.OutcomeCancelled
			}
			log.Error("scan %s (%s) reading rows: %v", id, cat, err)
			s.report(cb, fmt.Errorf("read %s rows: %w", cat, err))
			return items, metrics.OutcomeFailed
		}
	}
	return items, outcome
}

func (s *Scanner[T]) progress(throttle *rate.Sometimes, cb Callback[T], index, total int, item T) {
	delivered := false
	throttle.Do(func() {
		s.mu.Lock()
		live := !s.cancelled && !s.finished
		if live {
			s.lastUpdate = time.Now()
		}
		s.mu.Unlock()
		if !live {
			return
		}
		delivered = true
		s.poster.Post(func() { cb.OnUpdateProgress(index, total, item) })
	})

	result := "throttled"
	if delivered {
		result = "delivered"
	}
	metrics.ScanProgressEvents.WithLabelValues(string(s.category), result).Inc()
}

func (s *Scanner[T]) report(cb Callback[T], err error) {
	if h, ok := cb.(ErrorHandler); ok {
		s.poster.Post(func() { h.OnScanError(err) })
	}
}
