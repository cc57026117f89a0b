package mediastore

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"media-helper/internal/delivery"
	"media-helper/internal/mediatypes"
	"media-helper/internal/metrics"
	"media-helper/internal/workers"
)

func newTestScanner(t *testing.T, store RecordStore, dec Decoder[int64]) (*Scanner[int64], *manualPool) {
	t.Helper()
	pool := &manualPool{}
	s, err := ScanAudio(store, dec, WithPool(pool), WithPoster(inline{}))
	if err != nil {
		t.Fatalf("ScanAudio: %v", err)
	}
	return s, pool
}

func TestNewScannerValidation(t *testing.T) {
	store := newMemStore(0)

	if _, err := ScanAudio[int64](nil, idDecoder); !errors.Is(err, ErrNilStore) {
		t.Errorf("nil store: got %v, want ErrNilStore", err)
	}
	if _, err := ScanVideo[int64](store, nil); !errors.Is(err, ErrNilDecoder) {
		t.Errorf("nil decoder: got %v, want ErrNilDecoder", err)
	}
	if _, err := NewScanner(mediatypes.CategoryOther, store, idDecoder); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("other category: got %v, want ErrUnknownCategory", err)
	}

	s, err := ScanImages(store, idDecoder)
	if err != nil {
		t.Fatalf("ScanImages: %v", err)
	}
	if s.Category() != mediatypes.CategoryImage {
		t.Errorf("Category() = %q, want %q", s.Category(), mediatypes.CategoryImage)
	}
	if s.req.UpdateThrottle != DefaultUpdateThrottle {
		t.Errorf("default throttle = %v, want %v", s.req.UpdateThrottle, DefaultUpdateThrottle)
	}
}

func TestScanNilCallback(t *testing.T) {
	s, pool := newTestScanner(t, newMemStore(1), idDecoder)
	if err := s.Scan(nil); !errors.Is(err, ErrNilCallback) {
		t.Fatalf("Scan(nil) = %v, want ErrNilCallback", err)
	}
	if pool.pending() != 0 {
		t.Error("nil callback should not submit work")
	}
	if s.Running() {
		t.Error("nil callback should not claim the scanner")
	}
}

func TestScanDeliversItemsInOrder(t *testing.T) {
	s, pool := newTestScanner(t, newMemStore(5), idDecoder)
	rec := newRecorder()

	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !s.Running() {
		t.Error("scanner should be running once claimed")
	}
	pool.runAll()

	events := rec.snapshot()
	if len(events) < 2 || events[0].kind != "start" || events[len(events)-1].kind != "finished" {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
	if got := rec.count("finished"); got != 1 {
		t.Errorf("finished delivered %d times, want 1", got)
	}

	want := []int64{1, 2, 3, 4, 5}
	if got := events[len(events)-1].items; !slices.Equal(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}

	// The first progress event always passes the throttle.
	first := events[1]
	if first.kind != "progress" || first.index != 1 || first.total != 5 || first.item != 1 {
		t.Errorf("first progress = %+v, want index 1 of 5", first)
	}

	if s.Running() {
		t.Error("scanner still running after finish")
	}
	if !s.Finished() {
		t.Error("scanner should report finished")
	}
}

func TestScanRejectsSecondScanWhileRunning(t *testing.T) {
	s, pool := newTestScanner(t, newMemStore(2), idDecoder)

	if err := s.Scan(newRecorder()); err != nil {
		t.Fatalf("first Scan: %v", err)
	}
	err := s.Scan(newRecorder())
	if !errors.Is(err, ErrScanRunning) || !errors.Is(err, ErrIllegalState) {
		t.Fatalf("second Scan = %v, want ErrScanRunning", err)
	}
	if pool.pending() != 1 {
		t.Fatalf("pending tasks = %d, want 1", pool.pending())
	}

	pool.runAll()

	rec := newRecorder()
	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan after finish: %v", err)
	}
	pool.runAll()
	if rec.count("finished") != 1 {
		t.Error("rescan did not finish")
	}
}

func TestScanEmptyResults(t *testing.T) {
	tests := []struct {
		name  string
		store *memStore
	}{
		{name: "no rows", store: newMemStore(0)},
		{name: "no cursor", store: &memStore{noRows: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, pool := newTestScanner(t, tt.store, idDecoder)
			rec := newRecorder()
			if err := s.Scan(rec); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			pool.runAll()

			events := rec.snapshot()
			if len(events) != 2 || events[0].kind != "start" || events[1].kind != "finished" {
				t.Fatalf("events = %+v, want start then finished", events)
			}
			if events[1].items == nil || len(events[1].items) != 0 {
				t.Errorf("items = %#v, want empty non-nil slice", events[1].items)
			}
		})
	}
}

func TestScanQueryErrorFinishesEmpty(t *testing.T) {
	queryErr := errors.New("store unavailable")
	s, pool := newTestScanner(t, &memStore{err: queryErr}, idDecoder)
	rec := newRecorder()

	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pool.runAll()

	events := rec.snapshot()
	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = e.kind
	}
	if !slices.Equal(kinds, []string{"start", "error", "finished"}) {
		t.Fatalf("event kinds = %v", kinds)
	}
	if !errors.Is(events[1].err, queryErr) {
		t.Errorf("reported error = %v, want wrapping %v", events[1].err, queryErr)
	}
	if len(events[2].items) != 0 {
		t.Errorf("items = %v, want none", events[2].items)
	}
}

func TestScanDecodeFailureAborts(t *testing.T) {
	badRow := errors.New("bad row")
	dec := DecoderFunc[int64](func(r Row) (int64, error) {
		id, err := ID(r)
		if id == 3 {
			return 0, badRow
		}
		return id, err
	})
	s, pool := newTestScanner(t, newMemStore(5), dec)
	rec := newRecorder()
	failed := metrics.ScansTotal.WithLabelValues(string(mediatypes.CategoryAudio), metrics.OutcomeFailed)
	before := testutil.ToFloat64(failed)

	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pool.runAll()

	if got := testutil.ToFloat64(failed) - before; got != 1 {
		t.Errorf("failed scans recorded %v, want 1", got)
	}

	events := rec.snapshot()
	last := events[len(events)-1]
	if last.kind != "finished" {
		t.Fatalf("last event = %q, want finished", last.kind)
	}
	if !slices.Equal(last.items, []int64{1, 2}) {
		t.Errorf("items = %v, want [1 2]", last.items)
	}

	errEvent := events[len(events)-2]
	var derr *DecodeError
	if errEvent.kind != "error" || !errors.As(errEvent.err, &derr) {
		t.Fatalf("event before finish = %+v, want decode error", errEvent)
	}
	if derr.Index != 3 || !errors.Is(derr, badRow) {
		t.Errorf("decode error = %v (index %d), want row 3 wrapping bad row", derr, derr.Index)
	}
}

func TestScanMissingColumnFailsDecode(t *testing.T) {
	dec := DecoderFunc[int64](func(r Row) (int64, error) {
		return r.Int64("no_such_column")
	})
	s, pool := newTestScanner(t, newMemStore(2), dec)
	rec := newRecorder()
	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pool.runAll()

	for _, e := range rec.snapshot() {
		if e.kind == "error" && errors.Is(e.err, ErrColumnNotFound) {
			return
		}
	}
	t.Error("missing column was not reported as ErrColumnNotFound")
}

func TestCancelBeforeStartDeliversNothing(t *testing.T) {
	s, pool := newTestScanner(t, newMemStore(3), idDecoder)
	rec := newRecorder()

	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	s.Cancel()
	pool.runAll()

	if events := rec.snapshot(); len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
	if s.Running() {
		t.Error("claim not released after cancelled start")
	}
	if s.Finished() {
		t.Error("cancelled-before-start scan should not be finished")
	}
}

func TestCancelDuringScanKeepsDecodedItems(t *testing.T) {
	var s *Scanner[int64]
	dec := DecoderFunc[int64](func(r Row) (int64, error) {
		id, err := ID(r)
		if id == 3 {
			s.Cancel()
		}
		return id, err
	})
	s, pool := newTestScanner(t, newMemStore(10), dec)
	rec := newRecorder()

	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pool.runAll()

	if got := rec.count("finished"); got != 1 {
		t.Fatalf("finished delivered %d times, want 1", got)
	}
	events := rec.snapshot()
	if got := events[len(events)-1].items; !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("items = %v, want [1 2 3]", got)
	}
	if !s.Cancelled() {
		t.Error("Cancelled() = false after Cancel")
	}

	// Cancellation is permanent for the scanner.
	again := newRecorder()
	if err := s.Scan(again); err != nil {
		t.Fatalf("Scan after cancel: %v", err)
	}
	pool.runAll()
	if events := again.snapshot(); len(events) != 0 {
		t.Errorf("scan after cancel delivered %+v", events)
	}
}

func TestNoProgressAfterCancel(t *testing.T) {
	const cancelAt = 3
	var s *Scanner[int64]
	dec := DecoderFunc[int64](func(r Row) (int64, error) {
		time.Sleep(MinUpdateThrottle + 5*time.Millisecond)
		id, err := ID(r)
		if id == cancelAt {
			s.Cancel()
		}
		return id, err
	})
	s, pool := newTestScanner(t, newMemStore(6), dec)
	s.UpdateThrottle(MinUpdateThrottle)
	rec := newRecorder()

	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pool.runAll()

	var indexes []int
	for _, e := range rec.snapshot() {
		if e.kind == "progress" {
			indexes = append(indexes, e.index)
		}
	}
	// Rows are slower than the throttle, so every row before the cancel
	// reports progress and the cancelling row is the first one held back.
	if want := []int{1, 2}; !slices.Equal(indexes, want) {
		t.Errorf("progress indexes = %v, want %v", indexes, want)
	}
	if got := rec.count("finished"); got != 1 {
		t.Errorf("finished delivered %d times, want 1", got)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	s, _ := newTestScanner(t, newMemStore(1), idDecoder)
	s.Cancel()
	s.Cancel()
	if !s.Cancelled() {
		t.Error("Cancelled() = false")
	}
}

func TestProgressIsThrottled(t *testing.T) {
	const throttle = 40 * time.Millisecond
	dec := DecoderFunc[int64](func(r Row) (int64, error) {
		time.Sleep(15 * time.Millisecond)
		return ID(r)
	})
	s, pool := newTestScanner(t, newMemStore(12), dec)
	s.UpdateThrottle(throttle)
	rec := newRecorder()

	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pool.runAll()

	var progress []event
	for _, e := range rec.snapshot() {
		if e.kind == "progress" {
			progress = append(progress, e)
		}
	}
	if len(progress) == 0 || progress[0].index != 1 {
		t.Fatalf("first progress event missing: %+v", progress)
	}
	if len(progress) >= 12 {
		t.Errorf("got %d progress events for 12 rows, want fewer", len(progress))
	}
	for i := 1; i < len(progress); i++ {
		if progress[i].index <= progress[i-1].index {
			t.Errorf("progress index not increasing: %d then %d", progress[i-1].index, progress[i].index)
		}
		if gap := progress[i].at.Sub(progress[i-1].at); gap < throttle {
			t.Errorf("progress events %d and %d only %v apart", progress[i-1].index, progress[i].index, gap)
		}
	}
	if s.LastUpdate().IsZero() {
		t.Error("LastUpdate not recorded")
	}
}

func TestFastScanDeliversOnlyFirstProgress(t *testing.T) {
	s, pool := newTestScanner(t, newMemStore(5), idDecoder)
	s.UpdateThrottle(200 * time.Millisecond)
	rec := newRecorder()

	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pool.runAll()

	if got := rec.count("progress"); got != 1 {
		t.Errorf("progress events = %d, want 1", got)
	}
}

func TestUpdateThrottleClamp(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, MinUpdateThrottle},
		{time.Millisecond, MinUpdateThrottle},
		{-time.Second, MinUpdateThrottle},
		{MinUpdateThrottle, MinUpdateThrottle},
		{250 * time.Millisecond, 250 * time.Millisecond},
	}

	for _, tt := range tests {
		s, _ := newTestScanner(t, newMemStore(0), idDecoder)
		if got := s.UpdateThrottle(tt.in); got != s {
			t.Fatal("UpdateThrottle should return the same scanner")
		}
		if s.req.UpdateThrottle != tt.want {
			t.Errorf("UpdateThrottle(%v) stored %v, want %v", tt.in, s.req.UpdateThrottle, tt.want)
		}
	}
}

func TestConfigurationIsSnapshottedAtScan(t *testing.T) {
	store := newMemStore(1)
	s, pool := newTestScanner(t, store, idDecoder)
	s.Projection(ColumnID, ColumnDisplayName).
		Selection("_size > ?").
		SelectionArgs(1024).
		SortOrder("_id DESC")

	if err := s.Scan(newRecorder()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	s.Selection("changed").SortOrder("title")
	pool.runAll()

	q := store.lastQuery()
	if q.Category != mediatypes.CategoryAudio {
		t.Errorf("category = %q", q.Category)
	}
	if !slices.Equal(q.Projection, []string{ColumnID, ColumnDisplayName}) {
		t.Errorf("projection = %v", q.Projection)
	}
	if q.Selection != "_size > ?" || q.SortOrder != "_id DESC" {
		t.Errorf("query used later configuration: %+v", q)
	}
	if len(q.SelectionArgs) != 1 || q.SelectionArgs[0] != 1024 {
		t.Errorf("selection args = %v", q.SelectionArgs)
	}
}

func TestScanClosesCursor(t *testing.T) {
	store := newMemStore(3)
	s, pool := newTestScanner(t, store, idDecoder)
	if err := s.Scan(newRecorder()); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	pool.runAll()

	if len(store.cursors) != 1 || !store.cursors[0].closed {
		t.Error("cursor was not closed after scan")
	}
}

func TestSubmitFailureReleasesClaim(t *testing.T) {
	s, pool := newTestScanner(t, newMemStore(1), idDecoder)
	pool.err = workers.ErrPoolClosed

	err := s.Scan(newRecorder())
	if !errors.Is(err, workers.ErrPoolClosed) {
		t.Fatalf("Scan = %v, want ErrPoolClosed", err)
	}
	if s.Running() {
		t.Error("claim kept after failed submit")
	}
}

func TestScanOnPoolAndLoop(t *testing.T) {
	pool := workers.NewPool(workers.PoolConfig{MaxWorkers: 2, KeepAlive: 50 * time.Millisecond})
	defer pool.Close()
	loop := delivery.NewLoop("test")
	defer loop.Close()

	s, err := ScanVideo(newMemStore(20), idDecoder, WithPool(pool), WithPoster(loop))
	if err != nil {
		t.Fatalf("ScanVideo: %v", err)
	}
	rec := newRecorder()
	if err := s.Scan(rec); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	select {
	case <-rec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not finish")
	}

	events := rec.snapshot()
	if events[0].kind != "start" {
		t.Errorf("first event = %q, want start", events[0].kind)
	}
	if n := len(events[len(events)-1].items); n != 20 {
		t.Errorf("finished with %d items, want 20", n)
	}
}

// statePoster runs callbacks inline and checks the scanner state each time
// one is posted.
type statePoster struct {
	scanner  *Scanner[int64]
	posts    int
	overlaps int
}

func (p *statePoster) Post(fn func()) {
	p.posts++
	if p.scanner.Finished() && p.scanner.Running() {
		p.overlaps++
	}
	fn()
}

func TestFinishedNeverOverlapsRunning(t *testing.T) {
	poster := &statePoster{}
	pool := &manualPool{}
	s, err := ScanAudio(newMemStore(3), idDecoder, WithPool(pool), WithPoster(poster))
	if err != nil {
		t.Fatalf("ScanAudio: %v", err)
	}
	poster.scanner = s

	for round := range 2 {
		rec := newRecorder()
		if err := s.Scan(rec); err != nil {
			t.Fatalf("round %d: Scan: %v", round, err)
		}
		if s.Finished() {
			t.Errorf("round %d: Finished() still true after Scan claimed the scanner", round)
		}
		pool.runAll()

		if got := rec.count("finished"); got != 1 {
			t.Errorf("round %d: finished delivered %d times, want 1", round, got)
		}
		if s.Running() || !s.Finished() {
			t.Errorf("round %d: Running()=%v Finished()=%v after the scan", round, s.Running(), s.Finished())
		}
	}

	if poster.posts == 0 {
		t.Fatal("nothing was posted")
	}
	if poster.overlaps != 0 {
		t.Errorf("observed finished and running together %d time(s)", poster.overlaps)
	}
}
