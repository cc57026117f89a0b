package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"media-helper/internal/mediatypes"
)

type mockStatsProvider struct {
	mu     sync.Mutex
	counts map[mediatypes.Category]int64
	err    error
	calls  int
}

func (m *mockStatsProvider) CountByCategory(_ context.Context) (map[mediatypes.Category]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.counts, m.err
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestCollectorSetsRecordGauges(t *testing.T) {
	provider := &mockStatsProvider{
		counts: map[mediatypes.Category]int64{
			mediatypes.CategoryAudio: 12,
			mediatypes.CategoryVideo: 3,
			mediatypes.CategoryImage: 40,
		},
	}

	c := NewCollector(provider, time.Second)
	c.collect()

	tests := []struct {
		cat  mediatypes.Category
		want float64
	}{
		{mediatypes.CategoryAudio, 12},
		{mediatypes.CategoryVideo, 3},
		{mediatypes.CategoryImage, 40},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(MediaRecordsTotal.WithLabelValues(string(tt.cat)))
		if got != tt.want {
			t.Errorf("MediaRecordsTotal{%s} = %v, want %v", tt.cat, got, tt.want)
		}
	}
}

func TestCollectorKeepsGaugesOnError(t *testing.T) {
	MediaRecordsTotal.WithLabelValues(string(mediatypes.CategoryAudio)).Set(7)

	provider := &mockStatsProvider{err: errors.New("database is locked")}
	c := NewCollector(provider, time.Second)
	c.collect()

	if got := testutil.ToFloat64(MediaRecordsTotal.WithLabelValues(string(mediatypes.CategoryAudio))); got != 7 {
		t.Errorf("gauge changed after failed collection: got %v", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Second)
	c.collect() // must not panic
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{counts: map[mediatypes.Category]int64{}}
	c := NewCollector(provider, 10*time.Millisecond)

	c.Start()
	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if provider.callCount() < 3 {
		t.Fatalf("expected at least 3 collections, got %d", provider.callCount())
	}

	after := provider.callCount()
	time.Sleep(30 * time.Millisecond)
	if provider.callCount() != after {
		t.Errorf("collector kept running after Stop: %d -> %d", after, provider.callCount())
	}
}
