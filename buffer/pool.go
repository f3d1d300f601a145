package buffer

import "sync"

// Pool supplies backing storage for Growable buffers. It is injected
// rather than ambient so tests can substitute a deterministic
// implementation.
type Pool interface {
	// Get returns a slice with capacity of at least n and zero length.
	Get(n int) []byte
	// Put returns a slice obtained from Get. The caller must not use
	// the slice afterwards.
	Put(p []byte)
}

// DefaultDiscardLimit is the largest slice a SyncPool retains. Larger
// slices are left to the garbage collector so one oversized body cannot
// pin memory for the whole process.
const DefaultDiscardLimit = 1 << 20 // 1MB

// SyncPool is the default Pool, built on sync.Pool. A single process-wide
// instance is shared by all bodies unless callers inject their own.
type SyncPool struct {
	pool         sync.Pool
	discardLimit int
}

// NewSyncPool creates a pool that discards returned slices larger than
// discardLimit. A non-positive limit uses DefaultDiscardLimit.
func NewSyncPool(discardLimit int) *SyncPool {
	if discardLimit <= 0 {
		discardLimit = DefaultDiscardLimit
	}
	return &SyncPool{discardLimit: discardLimit}
}

// Get returns a slice with capacity of at least n and zero length.
func (sp *SyncPool) Get(n int) []byte {
	if v := sp.pool.Get(); v != nil {
		p := *(v.(*[]byte))
		if cap(p) >= n {
			return p[:0]
		}
		// Too small for this request; put it back for a smaller one.
		sp.pool.Put(v)
	}
	return make([]byte, 0, n)
}

// Put returns a slice to the pool. Slices above the discard limit are
// dropped.
func (sp *SyncPool) Put(p []byte) {
	if cap(p) == 0 || cap(p) > sp.discardLimit {
		return
	}
	p = p[:0]
	sp.pool.Put(&p)
}

var defaultPool = NewSyncPool(DefaultDiscardLimit)

// DefaultPool returns the process-wide shared pool.
func DefaultPool() Pool { return defaultPool }
