package buffer

import "fmt"

// Buffer is a growth-limited byte container. Both variants implement
// io.Writer; writes that would exceed the configured limit fail with
// *CapacityError and leave the contents untouched.
type Buffer interface {
	// Write appends p to the buffer. It returns *CapacityError if the
	// write would exceed the configured limit; no partial write occurs.
	Write(p []byte) (int, error)

	// Len returns the number of bytes written so far.
	Len() int64

	// Bytes returns an owned copy of the contents, sized exactly to Len.
	// The copy never aliases internal storage and remains valid after
	// Release.
	Bytes() []byte

	// Release frees the backing storage. Calling Release more than once
	// is a no-op. The buffer must not be written to after Release.
	Release()
}

// Viewer is implemented by buffers whose contents can be exposed without
// copying. Only Fixed qualifies: pooled storage must never escape by
// reference.
type Viewer interface {
	// View returns the contents aliasing internal storage. Read-only.
	View() []byte
}

// CapacityError reports a write or allocation that would exceed a buffer's
// configured limit.
type CapacityError struct {
	// Requested is the total size the operation needed.
	Requested int64
	// Limit is the configured maximum.
	Limit int64
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("buffer: content size %d exceeds limit %d", e.Requested, e.Limit)
}
