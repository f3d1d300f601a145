// Package body turns an abstract, possibly-unbounded content producer
// into a bounded in-memory buffer, a lazily-exposed readable stream, or a
// direct copy to an output sink, with memory limits, cooperative
// cancellation, and one error taxonomy.
//
// A Body is created over a Writer, the boundary to a format-specific
// content producer, and buffers it at most once:
//
//	b := body.New(body.NewStringWriter("payload"),
//	    body.WithCharset("utf-8"),
//	    body.WithDeclaredLength(7))
//	defer b.Close()
//
//	text, err := b.Text(ctx)   // materialize + decode
//	raw, err := b.Bytes(ctx)   // materialize + owned copy
//	rc, err := b.Stream(ctx)   // cached readable stream
//	err = b.WriteTo(ctx, sink) // bulk write or direct stream-through
//
// Every failure is one distinguishable kind (see ErrorCode); the original
// fault is always retained as the wrapped cause. A fault that occurred
// because cancellation fired is reported as canceled, whatever the
// underlying cause.
//
// A Body has a single logical owner. Concurrent calls on the same
// instance are not a supported pattern; independent bodies run fully in
// parallel.
package body
