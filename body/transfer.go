package body

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// WriteTo copies the content to sink. A materialized body is written in a
// single bulk write with no further calls to the content writer; an
// unmaterialized one streams from the writer straight into the sink, so
// large unbuffered bodies are never copied twice.
//
// Faults from the sink or the writer surface as transfer errors wrapping
// the cause, except when cancellation fired: cancellation takes
// precedence regardless of which underlying fault it triggered. Errors
// that already carry a classification propagate unchanged.
func (b *Body) WriteTo(ctx context.Context, sink io.Writer) error {
	if b.closed.Load() {
		return NewClosedError("write_to")
	}

	ctx, span := b.tracer.Start(ctx, "body.WriteTo")
	defer span.End()
	span.SetAttributes(attribute.Bool("body.buffered", b.buf != nil))

	var err error
	var n int64
	if b.buf != nil {
		var written int
		written, err = sink.Write(b.bufferedView())
		n = int64(written)
	} else {
		cw := &countingWriter{w: sink}
		err = b.writer.WriteTo(ctx, cw)
		n = cw.n
	}
	if err != nil {
		cerr := classify(ctx, err)
		span.RecordError(cerr)
		span.SetStatus(codes.Error, cerr.Error())
		b.log.Debug().Err(cerr).Int64("bytes", n).Msg("transfer failed")
		return cerr
	}
	span.SetAttributes(attribute.Int64("body.bytes", n))
	b.log.Debug().Int64("bytes", n).Msg("transferred")
	return nil
}

// countingWriter tracks how many bytes reached the sink, for the log and
// span fields on the streaming path.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
