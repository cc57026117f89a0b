package metrics

import (
	"context"
	"time"

	"media-helper/internal/logging"
	"media-helper/internal/mediatypes"
)

// StatsProvider reports the number of records per category.
type StatsProvider interface {
	CountByCategory(ctx context.Context) (map[mediatypes.Category]int64, error)
}

// Collector periodically samples the media store and updates gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and waits for the loop to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	counts, err := c.statsProvider.CountByCategory(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	for _, cat := range mediatypes.Categories {
		MediaRecordsTotal.WithLabelValues(string(cat)).Set(float64(counts[cat]))
	}

	logging.Debug("Metrics collected: audio=%d, video=%d, image=%d",
		counts[mediatypes.CategoryAudio], counts[mediatypes.CategoryVideo], counts[mediatypes.CategoryImage])
}
