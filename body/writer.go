package body

import (
	"bytes"
	"context"
	"io"
)

// Writer is the boundary to a format-specific content producer (string,
// byte-array, multipart, ...). Implementations write their bytes to the
// given sink; the engine calls WriteTo at most once per materialization
// attempt.
type Writer interface {
	WriteTo(ctx context.Context, w io.Writer) error
}

// LengthComputer is an optional fast path a Writer may implement when it
// can report its byte length without producing the content.
type LengthComputer interface {
	// ComputeLength returns the content length and true, or false when
	// the length cannot be computed.
	ComputeLength() (int64, bool)
}

// StreamOpener is an optional fast path a Writer may implement when it
// can expose its content as a stream directly, without buffering.
type StreamOpener interface {
	OpenStream(ctx context.Context) (io.ReadCloser, error)
}

// bytesWriter adapts an in-memory byte slice to the Writer boundary.
type bytesWriter struct {
	data []byte
}

// NewBytesWriter returns a Writer producing the given bytes. The slice is
// not copied; the caller must not mutate it afterwards.
func NewBytesWriter(data []byte) Writer {
	return &bytesWriter{data: data}
}

// NewStringWriter returns a Writer producing the UTF-8 bytes of s.
func NewStringWriter(s string) Writer {
	return &bytesWriter{data: []byte(s)}
}

func (w *bytesWriter) WriteTo(_ context.Context, dst io.Writer) error {
	_, err := dst.Write(w.data)
	return err
}

func (w *bytesWriter) ComputeLength() (int64, bool) {
	return int64(len(w.data)), true
}

func (w *bytesWriter) OpenStream(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(w.data)), nil
}

// readerWriter adapts a single-shot io.Reader to the Writer boundary.
// Its length is unknown and it can be consumed only once.
type readerWriter struct {
	r io.Reader
}

// NewReaderWriter returns a Writer that copies from r. The reader is
// consumed by the first materialization or transfer.
func NewReaderWriter(r io.Reader) Writer {
	return &readerWriter{r: r}
}

func (w *readerWriter) WriteTo(ctx context.Context, dst io.Writer) error {
	_, err := io.Copy(dst, &contextReader{ctx: ctx, r: w.r})
	return err
}

// contextReader makes a blocking reader cooperatively cancelable by
// checking the context between reads.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
