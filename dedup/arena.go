package dedup

import (
	"bytes"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"doubri/manifest"
)

// arena is a single contiguous byte block holding one bucket column for
// every item, indexed by global ordinal: item i's bucket bytes are
// arena.bytes[i*bytesPerBucket : (i+1)*bytesPerBucket]. A single allocation
// keeps lexicographic memcmp cheap and avoids N small allocations.
type arena struct {
	bytes          []byte
	bytesPerBucket int
}

func newArena(n, bytesPerBucket int) *arena {
	return &arena{bytes: make([]byte, n*bytesPerBucket), bytesPerBucket: bytesPerBucket}
}

func (a *arena) slot(i manifest.ItemID) []byte {
	off := int(i) * a.bytesPerBucket
	return a.bytes[off : off+a.bytesPerBucket]
}

// less implements the deterministic ordering relation: lexicographic on
// bucket bytes, tiebreak ascending by item id, so repeated runs always
// produce the same canonical survivor regardless of goroutine scheduling.
func (a *arena) less(x, y manifest.ItemID) bool {
	c := bytes.Compare(a.slot(x), a.slot(y))
	if c != 0 {
		return c < 0
	}

	return x < y
}

func (a *arena) equal(x, y manifest.ItemID) bool {
	return bytes.Equal(a.slot(x), a.slot(y))
}

// parallelSort sorts handles in place by a.less, by splitting into
// GOMAXPROCS chunks sorted concurrently and then merged pairwise
// single-threaded. Go's standard library has no concurrent in-memory sort;
// this chunk-then-merge shape is the idiomatic substitute.
func (a *arena) parallelSort(handles []manifest.ItemID) error {
	n := len(handles)
	if n < 2 {
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers
	bounds := make([][2]int, 0, workers)
	for lo := 0; lo < n; lo += chunkSize {
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		bounds = append(bounds, [2]int{lo, hi})
	}

	var g errgroup.Group
	for _, b := range bounds {
		lo, hi := b[0], b[1]
		g.Go(func() error {
			chunk := handles[lo:hi]
			sort.Slice(chunk, func(i, j int) bool { return a.less(chunk[i], chunk[j]) })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := make([]manifest.ItemID, 0, n)
	for _, b := range bounds {
		merged = a.mergeSorted(merged, handles[b[0]:b[1]])
	}
	copy(handles, merged)

	return nil
}

func (a *arena) mergeSorted(dst, src []manifest.ItemID) []manifest.ItemID {
	if len(dst) == 0 {
		return append(dst, src...)
	}

	out := make([]manifest.ItemID, 0, len(dst)+len(src))
	i, j := 0, 0
	for i < len(dst) && j < len(src) {
		if a.less(src[j], dst[i]) {
			out = append(out, src[j])
			j++
		} else {
			out = append(out, dst[i])
			i++
		}
	}
	out = append(out, dst[i:]...)
	out = append(out, src[j:]...)

	return out
}
