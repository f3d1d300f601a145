package body

import (
	"bytes"
	"context"
	"io"
)

// streamState tags the body's read-stream slot. Transitions are
// monotonic: empty may become materialized or pending, and neither of
// those ever reverts.
type streamState int

const (
	streamEmpty streamState = iota
	streamMaterialized
	streamPending
)

// StreamFuture is the pending variant of the read-stream slot: a handle
// to a stream that a background materialization will produce. Repeated
// asynchronous requests on the same body observe the identical future, so
// the stream is created at most once.
type StreamFuture struct {
	done chan struct{}
	rc   io.ReadCloser
	err  error
}

func newStreamFuture() *StreamFuture {
	return &StreamFuture{done: make(chan struct{})}
}

// resolvedStreamFuture wraps an already-produced stream so a later
// asynchronous request after a synchronous one returns a done future
// instead of recomputing the stream.
func resolvedStreamFuture(rc io.ReadCloser) *StreamFuture {
	f := newStreamFuture()
	f.resolve(rc, nil)
	return f
}

// resolve completes the future. Called exactly once.
func (f *StreamFuture) resolve(rc io.ReadCloser, err error) {
	f.rc = rc
	f.err = err
	close(f.done)
}

// Wait blocks until the stream is produced or ctx is done.
func (f *StreamFuture) Wait(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-f.done:
		return f.rc, f.err
	case <-ctx.Done():
		return nil, NewCanceledError(ctx.Err())
	}
}

// tryGet returns the result without blocking. ok is false while the
// future is still in flight.
func (f *StreamFuture) tryGet() (rc io.ReadCloser, err error, ok bool) {
	select {
	case <-f.done:
		return f.rc, f.err, true
	default:
		return nil, nil, false
	}
}

// viewStream wraps buffered bytes as a readable stream. Close is a no-op:
// the underlying storage belongs to the body and is released by the
// body's own Close.
func viewStream(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}
