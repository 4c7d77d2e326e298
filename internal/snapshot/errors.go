package snapshot

import (
	"errors"
	"fmt"
)

// ErrStaleRead reports that a channel resolved but its content could not be
// read in full this tick, typically a producer replacing the export mid-read.
var ErrStaleRead = errors.New("stale read")

// RecordError describes why one raw record was rejected.
type RecordError struct {
	Index int    // position in the channel's trip list
	ID    string // empty when the id itself was the problem
	Field string
	Err   error
}

func (e *RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (%s): %s: %v", e.Index, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("record %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

var (
	errMissing  = errors.New("missing")
	errEmpty    = errors.New("empty")
	errType     = errors.New("unsupported value type")
	errNotEpoch = errors.New("not an epoch or RFC 3339 timestamp")
	errOrder    = errors.New("ends before it starts")
	errNotObj   = errors.New("not an object")
)
