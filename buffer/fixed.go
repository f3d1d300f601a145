package buffer

// Fixed is a bounded buffer for content whose byte length is known up
// front. The store is allocated once at the declared size; writes beyond
// the configured limit fail.
type Fixed struct {
	data  []byte
	limit int64
}

// NewFixed creates a buffer pre-sized to size bytes with a hard limit of
// limit bytes. It returns *CapacityError immediately if size exceeds
// limit.
func NewFixed(size, limit int64) (*Fixed, error) {
	if size > limit {
		return nil, &CapacityError{Requested: size, Limit: limit}
	}
	return &Fixed{data: make([]byte, 0, size), limit: limit}, nil
}

// Write appends p. A write that would exceed the limit fails before any
// byte is stored.
func (f *Fixed) Write(p []byte) (int, error) {
	need := int64(len(f.data)) + int64(len(p))
	if need > f.limit {
		return 0, &CapacityError{Requested: need, Limit: f.limit}
	}
	f.data = append(f.data, p...)
	return len(p), nil
}

// Len returns the number of bytes written so far.
func (f *Fixed) Len() int64 { return int64(len(f.data)) }

// Bytes returns an owned copy of the contents.
func (f *Fixed) Bytes() []byte {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}

// View returns the contents aliasing internal storage, without copying.
// Only Fixed offers this: its store is privately owned and never returned
// to a pool, so the alias stays valid until the process drops the buffer.
// Callers must treat the view as read-only.
func (f *Fixed) View() []byte { return f.data }

// Release drops the store. Fixed storage is not pooled, so this only
// unpins the slice for the garbage collector. Safe to call repeatedly.
func (f *Fixed) Release() { f.data = nil }
