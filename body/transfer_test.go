package body

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

// faultySink fails every write with a fixed error.
type faultySink struct {
	err error
}

func (s *faultySink) Write(p []byte) (int, error) {
	return 0, s.err
}

func TestWriteTo_BufferedBulkWrite(t *testing.T) {
	w := &fakeWriter{data: []byte("buffered body")}
	b := New(w)
	defer b.Close()
	if err := b.Materialize(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	var sink bytes.Buffer
	if err := b.WriteTo(context.Background(), &sink); err != nil {
		t.Fatal(err)
	}
	if sink.String() != "buffered body" {
		t.Errorf("sink = %q", sink.String())
	}
	if w.calls != 1 {
		t.Errorf("writer invoked %d times; buffered copy must not call it again", w.calls)
	}
}

func TestWriteTo_StreamingPath(t *testing.T) {
	w := &fakeWriter{data: []byte("streamed body")}
	b := New(w)
	defer b.Close()

	var sink bytes.Buffer
	if err := b.WriteTo(context.Background(), &sink); err != nil {
		t.Fatal(err)
	}
	if sink.String() != "streamed body" {
		t.Errorf("sink = %q", sink.String())
	}
	// The streaming path goes straight to the sink without buffering.
	if b.buf != nil {
		t.Error("streaming path materialized a buffer")
	}
}

func TestWriteTo_SinkFault(t *testing.T) {
	cause := fmt.Errorf("disk full")
	b := New(&fakeWriter{data: []byte("x")})
	defer b.Close()

	err := b.WriteTo(context.Background(), &faultySink{err: cause})
	if !IsTransfer(err) {
		t.Fatalf("expected transfer error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("original fault not retained as wrapped cause")
	}
}

func TestWriteTo_ClosedPipeFault(t *testing.T) {
	b := New(&fakeWriter{data: []byte("x")})
	defer b.Close()

	err := b.WriteTo(context.Background(), &faultySink{err: io.ErrClosedPipe})
	if !IsTransfer(err) {
		t.Fatalf("expected transfer error, got %v", err)
	}
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("pipe fault not retained as wrapped cause")
	}
}

func TestWriteTo_CancellationPrecedence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The sink reports a plain I/O fault, but cancellation has fired,
	// so the canceled classification wins.
	b := New(&fakeWriter{data: []byte("x")})
	defer b.Close()
	err := b.WriteTo(ctx, &faultySink{err: fmt.Errorf("broken pipe")})
	if !IsCanceled(err) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestWriteTo_TypedErrorsPropagate(t *testing.T) {
	// A writer surfacing an already-classified error is not re-wrapped
	// as a transfer fault.
	stateErr := NewStateError("illegal sequence upstream")
	b := New(&fakeWriter{err: stateErr})
	defer b.Close()

	err := b.WriteTo(context.Background(), io.Discard)
	if !IsState(err) {
		t.Fatalf("expected state error to propagate, got %v", err)
	}
}

func TestWriteTo_RetryableAfterSinkFault(t *testing.T) {
	// A transfer failure after successful materialization leaves the
	// buffered data intact for a retry.
	b := New(&fakeWriter{data: []byte("keep me")})
	defer b.Close()
	if err := b.Materialize(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteTo(context.Background(), &faultySink{err: fmt.Errorf("flaky")}); err == nil {
		t.Fatal("expected sink fault")
	}

	var sink bytes.Buffer
	if err := b.WriteTo(context.Background(), &sink); err != nil {
		t.Fatal(err)
	}
	if sink.String() != "keep me" {
		t.Errorf("retry wrote %q", sink.String())
	}
}
