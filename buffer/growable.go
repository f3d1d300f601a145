package buffer

import "math"

// growable growth starts here when the first write is smaller.
const minGrowableCapacity = 256

// maxAlloc is the largest slice capacity the platform can represent.
// Growth doubles up to this point; a request beyond it is handed to the
// runtime allocator, whose own failure is not swallowed.
const maxAlloc = math.MaxInt

// Growable is a bounded buffer for content of unknown length. Backing
// storage is borrowed from a Pool, grows geometrically, and is returned
// to the pool exactly once on Release.
type Growable struct {
	data     []byte
	limit    int64
	pool     Pool
	released bool
}

// NewGrowable creates an empty buffer capped at limit bytes, drawing
// storage from pool. A nil pool uses the process-wide default.
func NewGrowable(pool Pool, limit int64) *Growable {
	if pool == nil {
		pool = DefaultPool()
	}
	return &Growable{limit: limit, pool: pool}
}

// Write appends p, growing the backing store as needed. A write that
// would exceed the limit fails before any byte is stored or any growth
// happens.
func (g *Growable) Write(p []byte) (int, error) {
	need := int64(len(g.data)) + int64(len(p))
	if need > g.limit {
		return 0, &CapacityError{Requested: need, Limit: g.limit}
	}
	if int64(cap(g.data))-int64(len(g.data)) < int64(len(p)) {
		g.grow(int(need))
	}
	g.data = append(g.data, p...)
	return len(p), nil
}

// grow replaces the backing store with one of at least requested
// capacity: double the current capacity, capped at the platform max,
// but never less than requested.
func (g *Growable) grow(requested int) {
	newCap := cap(g.data) * 2
	if newCap > maxAlloc || newCap < cap(g.data) {
		newCap = maxAlloc
	}
	if newCap < requested {
		newCap = requested
	}
	if newCap < minGrowableCapacity {
		newCap = minGrowableCapacity
	}

	grown := g.pool.Get(newCap)
	grown = append(grown, g.data...)
	if g.data != nil {
		g.pool.Put(g.data)
	}
	g.data = grown
}

// Len returns the number of bytes written so far.
func (g *Growable) Len() int64 { return int64(len(g.data)) }

// Bytes returns an owned copy of the contents, sized exactly to Len.
// Growth slack and pool-owned storage are never exposed.
func (g *Growable) Bytes() []byte {
	out := make([]byte, len(g.data))
	copy(out, g.data)
	return out
}

// Release returns the backing store to the pool. Only the first call
// releases; subsequent calls are no-ops.
func (g *Growable) Release() {
	if g.released {
		return
	}
	g.released = true
	if g.data != nil {
		g.pool.Put(g.data)
		g.data = nil
	}
}
