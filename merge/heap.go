package merge

import (
	"bytes"
	"container/heap"
)

// headItem is one reader's current front record, queued in the merge heap
// as its raw on-disk bytes (bucket then trailer).
type headItem struct {
	raw    []byte
	reader int
}

// recordHeap is a classic container/heap min-heap keyed by the full raw
// record bytes. Because buckets and trailers are big-endian, lexicographic
// byte order already is the full ordering relation (bucket bytes, then
// group, then item); no per-comparison decoding is needed.
type recordHeap []headItem

func (h recordHeap) Len() int            { return len(h) }
func (h recordHeap) Less(i, j int) bool  { return bytes.Compare(h[i].raw, h[j].raw) < 0 }
func (h recordHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *recordHeap) Push(x interface{}) { *h = append(*h, x.(headItem)) }

func (h *recordHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

var (
	_ heap.Interface = (*recordHeap)(nil)
)
