package body

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/httpbody/buffer"
	"github.com/kbukum/httpbody/charset"
)

const tracerName = "github.com/kbukum/httpbody/body"

// lengthUnknown marks a length that was queried once and reported
// unknown; it is never re-queried.
const lengthUnknown int64 = -1

// Body owns one logical HTTP message body: the buffered representation,
// the read-stream slot, and the disposal lifecycle. A Body has a single
// logical owner; concurrent calls on the same instance are not a
// supported pattern (independent bodies run fully in parallel).
type Body struct {
	writer Writer
	cfg    Config
	pool   buffer.Pool
	log    zerolog.Logger
	tracer trace.Tracer
	id     string

	declaredLength  int64 // -1 when no Content-Length was supplied
	declaredCharset string

	// buf is set at most once; afterwards it is the sole source of
	// truth for reads.
	buf    buffer.Buffer
	matErr *Error // sticky result of a failed materialization

	state   streamState
	stream  io.ReadCloser
	pending *StreamFuture

	lengthCached bool
	length       int64

	// mu guards only the buffer commit and teardown: the cancellation
	// callback may close the body while a materialization is in flight,
	// and that mutation must be tolerated. Operations on one body are
	// otherwise caller-serialized, not locked.
	mu     sync.Mutex
	closed atomic.Bool
}

// Option configures a Body.
type Option func(*Body)

// WithDeclaredLength supplies the content length from the message
// headers. It sizes the buffer up front and is validated against the
// buffering limit before any write happens.
func WithDeclaredLength(n int64) Option {
	return func(b *Body) { b.declaredLength = n }
}

// WithCharset supplies the charset parameter from the Content-Type
// header, verbatim. The value is not parsed here; header syntax belongs
// to the header collaborator.
func WithCharset(name string) Option {
	return func(b *Body) { b.declaredCharset = name }
}

// WithConfig overrides the default configuration.
func WithConfig(cfg Config) Option {
	return func(b *Body) { b.cfg = cfg }
}

// WithPool injects the buffer pool. Defaults to the process-wide shared
// pool.
func WithPool(p buffer.Pool) Option {
	return func(b *Body) { b.pool = p }
}

// WithLogger injects a logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Body) { b.log = log }
}

// New creates a Body over the given content writer.
func New(w Writer, opts ...Option) *Body {
	b := &Body{
		writer:         w,
		cfg:            DefaultConfig(),
		log:            zerolog.Nop(),
		tracer:         otel.Tracer(tracerName),
		id:             uuid.NewString(),
		declaredLength: lengthUnknown,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.cfg.ApplyDefaults()
	if b.pool == nil {
		b.pool = buffer.DefaultPool()
	}
	b.log = b.log.With().Str("body_id", b.id).Logger()
	return b
}

// Materialize buffers the content in memory, up to maxBytes. It is
// idempotent: the content writer runs at most once, and repeated calls
// return the first call's result. Any failure leaves the body fully
// closed, with no partially-buffered survivors. A non-positive maxBytes
// uses the configured maximum.
func (b *Body) Materialize(ctx context.Context, maxBytes int64) error {
	if b.matErr != nil {
		return b.matErr
	}
	if b.closed.Load() {
		return NewClosedError("materialize")
	}
	if b.buf != nil {
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = b.cfg.MaxBufferSize
	}

	ctx, span := b.tracer.Start(ctx, "body.Materialize")
	defer span.End()

	err := b.materialize(ctx, maxBytes)
	if err != nil {
		b.matErr = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.log.Debug().Err(err).Msg("materialize failed")
		return err
	}
	span.SetAttributes(attribute.Int64("body.bytes", b.buf.Len()))
	b.log.Debug().Int64("bytes", b.buf.Len()).Msg("materialized")
	return nil
}

func (b *Body) materialize(ctx context.Context, maxBytes int64) *Error {
	// Cancellation tears the body down so any holder of a live stream
	// sees it closed. The registration is released on every exit path.
	stop := context.AfterFunc(ctx, func() { _ = b.Close() })
	defer stop()

	var buf buffer.Buffer
	if b.declaredLength >= 0 {
		fixed, err := buffer.NewFixed(b.declaredLength, maxBytes)
		if err != nil {
			_ = b.Close()
			return NewCapacityError(err)
		}
		buf = fixed
	} else {
		buf = buffer.NewGrowable(b.pool, maxBytes)
	}

	if err := b.writer.WriteTo(ctx, buf); err != nil {
		buf.Release()
		_ = b.Close()
		return classify(ctx, err)
	}

	b.mu.Lock()
	if b.closed.Load() || ctx.Err() != nil {
		b.mu.Unlock()
		buf.Release()
		_ = b.Close()
		if err := ctx.Err(); err != nil {
			return NewCanceledError(err)
		}
		return NewClosedError("materialize")
	}
	b.buf = buf
	b.mu.Unlock()
	return nil
}

// Bytes materializes the content if needed and returns an independent
// copy of the buffered bytes. The copy never aliases the live buffer, so
// closing the body later cannot corrupt it.
func (b *Body) Bytes(ctx context.Context) ([]byte, error) {
	if b.closed.Load() {
		return nil, NewClosedError("bytes")
	}
	if err := b.Materialize(ctx, 0); err != nil {
		return nil, err
	}
	return b.buf.Bytes(), nil
}

// Text materializes the content if needed, resolves its encoding
// (declared charset first, byte-order-mark sniffing otherwise), and
// decodes everything after the mark. An empty body is the empty string
// with no resolution at all.
func (b *Body) Text(ctx context.Context) (string, error) {
	if b.closed.Load() {
		return "", NewClosedError("text")
	}
	if err := b.Materialize(ctx, 0); err != nil {
		return "", err
	}
	data := b.bufferedView()
	if len(data) == 0 {
		return "", nil
	}
	s, err := charset.Decode(data, b.declaredCharset)
	if err != nil {
		// Decode failures leave the buffered data intact; reads may be
		// retried with a corrected charset upstream.
		return "", classify(ctx, err)
	}
	return s, nil
}

// Length returns the content length if it is known. A materialized body
// reports its buffered length; otherwise the writer is asked to compute
// the length exactly once, and an "unknown" answer is cached permanently.
func (b *Body) Length() (int64, bool) {
	if b.buf != nil {
		return b.buf.Len(), true
	}
	if !b.lengthCached {
		b.lengthCached = true
		b.length = lengthUnknown
		if lc, ok := b.writer.(LengthComputer); ok {
			if n, known := lc.ComputeLength(); known {
				b.length = n
			}
		}
	}
	if b.length == lengthUnknown {
		return 0, false
	}
	return b.length, true
}

// Stream returns a readable stream over the content, synchronously.
// Repeated calls return the cached stream. If an asynchronous stream
// request is still in flight, Stream fails rather than starting a
// duplicate; once the pending stream has resolved it is returned
// verbatim.
func (b *Body) Stream(ctx context.Context) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, NewClosedError("stream")
	}
	switch b.state {
	case streamMaterialized:
		return b.stream, nil
	case streamPending:
		rc, err, ok := b.pending.tryGet()
		if !ok {
			return nil, NewStateError("async stream already requested, cannot fetch synchronously")
		}
		if err != nil {
			return nil, classify(ctx, err)
		}
		return rc, nil
	}

	rc, err := b.openStream(ctx)
	if err != nil {
		return nil, classify(ctx, err)
	}
	b.setStream(rc)
	return rc, nil
}

// StreamAsync returns a future for a readable stream over the content.
// Repeated calls return the identical future; a stream already produced
// synchronously is returned as an already-resolved future.
func (b *Body) StreamAsync(ctx context.Context) *StreamFuture {
	if b.closed.Load() {
		f := newStreamFuture()
		f.resolve(nil, NewClosedError("stream"))
		return f
	}
	switch b.state {
	case streamPending:
		return b.pending
	case streamMaterialized:
		// The state stays materialized; the resolved future is cached so
		// repeated async requests observe the same handle.
		if b.pending == nil {
			b.pending = resolvedStreamFuture(b.stream)
		}
		return b.pending
	}

	f := newStreamFuture()
	b.pending = f
	b.state = streamPending
	go func() {
		rc, err := b.openStream(ctx)
		if err != nil {
			f.resolve(nil, classify(ctx, err))
			return
		}
		f.resolve(rc, nil)
	}()
	return f
}

// openStream produces the stream for an empty slot: the writer's direct
// stream when it offers one, otherwise a zero-copy view over the
// buffered bytes (materializing first if needed).
func (b *Body) openStream(ctx context.Context) (io.ReadCloser, error) {
	if b.buf == nil {
		if so, ok := b.writer.(StreamOpener); ok {
			return so.OpenStream(ctx)
		}
		if err := b.Materialize(ctx, 0); err != nil {
			return nil, err
		}
	}
	return viewStream(b.bufferedView()), nil
}

// setStream records a materialized stream. The transition is one-way.
func (b *Body) setStream(rc io.ReadCloser) {
	b.stream = rc
	b.state = streamMaterialized
}

// bufferedView returns the buffered bytes without copying when the
// buffer supports it. Pooled buffers hand back an owned copy instead;
// their storage must not escape by reference.
func (b *Body) bufferedView() []byte {
	if v, ok := b.buf.(buffer.Viewer); ok {
		return v.View()
	}
	return b.buf.Bytes()
}

// Close releases the buffer and any materialized stream. A pending
// stream that has already resolved is closed too; one still in flight is
// left to complete. Close is idempotent and never fails; every operation
// after it reports a closed body.
func (b *Body) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Swap(true) {
		return nil
	}
	if b.stream != nil {
		_ = b.stream.Close()
	}
	if b.pending != nil {
		if rc, _, ok := b.pending.tryGet(); ok && rc != nil {
			_ = rc.Close()
		}
	}
	if b.buf != nil {
		b.buf.Release()
	}
	b.log.Debug().Msg("closed")
	return nil
}

// ID returns the body's correlation id, as carried in its log events.
func (b *Body) ID() string { return b.id }
