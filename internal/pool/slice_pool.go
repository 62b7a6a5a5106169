// Package pool provides a reusable byte-slice pool; the dedup package
// draws its per-pass index record buffer from it.
package pool

import "sync"

// byteSlicePool pools []byte buffers to reduce allocation pressure when
// the same record-sized scratch buffer is needed again on every bucket
// pass.
var byteSlicePool = sync.Pool{
	New: func() any { return &[]byte{} },
}

// GetByteSlice retrieves a []byte of exact length size from the pool.
//
// If the pooled slice has insufficient capacity, a new slice is allocated.
// The caller must invoke the returned cleanup function (typically via
// defer) to return the slice to the pool.
func GetByteSlice(size int) ([]byte, func()) {
	ptr, _ := byteSlicePool.Get().(*[]byte)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]byte, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { byteSlicePool.Put(ptr) }
}
