package mediastore

import (
	"errors"
	"fmt"
)

// ErrIllegalState marks calls that are invalid in the scanner's current
// state.
var ErrIllegalState = errors.New("illegal state")

var (
	ErrScanRunning     = fmt.Errorf("%w: scan already running", ErrIllegalState)
	ErrNilCallback     = errors.New("callback must not be nil")
	ErrNilDecoder      = errors.New("decoder must not be nil")
	ErrNilStore        = errors.New("record store must not be nil")
	ErrUnknownCategory = errors.New("unknown media category")
	ErrInvalidSort     = errors.New("invalid sort")
)

// DecodeError reports a row the decoder could not turn into an item.
type DecodeError struct {
	Index int // 1-based row index
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode row %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
