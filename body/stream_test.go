package body

import (
	"context"
	"io"
	"testing"
	"time"
)

// gatedWriter blocks inside WriteTo until released, so tests can observe
// the pending stream state deterministically.
type gatedWriter struct {
	data    []byte
	started chan struct{}
	release chan struct{}
}

func newGatedWriter(data []byte) *gatedWriter {
	return &gatedWriter{
		data:    data,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (w *gatedWriter) WriteTo(ctx context.Context, dst io.Writer) error {
	close(w.started)
	select {
	case <-w.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	_, err := dst.Write(w.data)
	return err
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	return string(data)
}

func TestStream_FromBufferedBody(t *testing.T) {
	b := New(&fakeWriter{data: []byte("buffered")})
	defer b.Close()
	if err := b.Materialize(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	rc, err := b.Stream(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, rc); got != "buffered" {
		t.Errorf("stream content = %q", got)
	}
}

func TestStream_CachedHandle(t *testing.T) {
	b := New(&fakeWriter{data: []byte("once")})
	defer b.Close()

	rc1, err := b.Stream(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rc2, err := b.Stream(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rc1 != rc2 {
		t.Error("repeated Stream calls returned different handles")
	}
}

func TestStream_DirectOpener(t *testing.T) {
	// NewBytesWriter offers the direct-stream fast path, so no buffer is
	// materialized.
	b := New(NewBytesWriter([]byte("direct")))
	defer b.Close()

	rc, err := b.Stream(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, rc); got != "direct" {
		t.Errorf("stream content = %q", got)
	}
	if b.buf != nil {
		t.Error("direct stream path materialized a buffer")
	}
}

func TestStreamAsync_SyncWhilePending(t *testing.T) {
	w := newGatedWriter([]byte("pending"))
	b := New(w)
	defer b.Close()

	f := b.StreamAsync(context.Background())
	<-w.started

	// A synchronous request while the async one is in flight is an
	// illegal sequence.
	if _, err := b.Stream(context.Background()); !IsState(err) {
		t.Fatalf("expected state error, got %v", err)
	}

	close(w.release)
	rc, err := f.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, rc); got != "pending" {
		t.Errorf("stream content = %q", got)
	}
}

func TestStreamAsync_IdenticalFuture(t *testing.T) {
	w := newGatedWriter([]byte("x"))
	b := New(w)
	defer b.Close()

	f1 := b.StreamAsync(context.Background())
	f2 := b.StreamAsync(context.Background())
	if f1 != f2 {
		t.Error("repeated StreamAsync calls returned different futures")
	}
	close(w.release)
	if _, err := f1.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestStreamAsync_SyncAfterResolved(t *testing.T) {
	w := newGatedWriter([]byte("resolved"))
	b := New(w)
	defer b.Close()

	f := b.StreamAsync(context.Background())
	close(w.release)
	rc, err := f.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Once the pending stream resolved, a sync request returns it
	// verbatim instead of failing.
	got, err := b.Stream(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != rc {
		t.Error("sync request did not return the resolved stream")
	}
}

func TestStreamAsync_AfterSync(t *testing.T) {
	b := New(&fakeWriter{data: []byte("sync-first")})
	defer b.Close()

	rc, err := b.Stream(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	f1 := b.StreamAsync(context.Background())
	got, err := f1.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != rc {
		t.Error("async request after sync did not return the cached handle")
	}
	f2 := b.StreamAsync(context.Background())
	if f1 != f2 {
		t.Error("resolved future was re-wrapped instead of returned verbatim")
	}
}

func TestStreamFuture_WaitCancellation(t *testing.T) {
	w := newGatedWriter([]byte("never"))
	b := New(w)

	f := b.StreamAsync(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.Wait(ctx); !IsCanceled(err) {
		t.Fatalf("expected canceled, got %v", err)
	}

	// Let the in-flight materialization finish before closing the body.
	close(w.release)
	if _, err := f.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = b.Close()
}
