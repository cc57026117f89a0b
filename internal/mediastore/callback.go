package mediastore

// Callback receives the events of one scan. All methods run on the
// scanner's delivery Poster, in the order OnStartScan, OnUpdateProgress
// (zero or more times, increasing index), OnFinished.
type Callback[T any] interface {
	OnStartScan()
	// OnUpdateProgress reports the index-th decoded item (1-based) out of
	// total rows. Delivery is throttled and advisory: items may be skipped,
	// including the last one.
	OnUpdateProgress(index, total int, item T)
	// OnFinished delivers every item decoded before the store was exhausted
	// or the scan was cancelled.
	OnFinished(items []T)
}

// ErrorHandler is an optional capability of a Callback. When implemented,
// query and decode failures are reported through it before OnFinished.
type ErrorHandler interface {
	OnScanError(err error)
}

// CallbackFuncs implements Callback and ErrorHandler with optional
// functions; nil fields are no-ops.
type CallbackFuncs[T any] struct {
	Start    func()
	Progress func(index, total int, item T)
	Finished func(items []T)
	Error    func(err error)
}

// OnStartScan calls c.Start if set.
func (c CallbackFuncs[T]) OnStartScan() {
	if c.Start != nil {
		c.Start()
	}
}

// OnUpdateProgress calls c.Progress if set.
func (c CallbackFuncs[T]) OnUpdateProgress(index, total int, item T) {
	if c.Progress != nil {
		c.Progress(index, total, item)
	}
}

// OnFinished calls c.Finished if set.
func (c CallbackFuncs[T]) OnFinished(items []T) {
	if c.Finished != nil {
		c.Finished(items)
	}
}

// OnScanError calls c.Error if set.
func (c CallbackFuncs[T]) OnScanError(err error) {
	if c.Error != nil {
		c.Error(err)
	}
}
