// Package hash wraps xxHash64 into the seeded hash family MinHash needs:
// H independent hash functions over the same feature set, addressed by an
// integer seed rather than a single fixed hash.
package hash

import "github.com/cespare/xxhash/v2"

// SeededSum64 computes the xxHash64 of seed concatenated with data.
//
// MinHash needs a family of independent hash functions h_0, h_1, ... h_{k-1}
// rather than one fixed hash; seeding a single hash with the function index
// is the standard substitute for k distinct hash functions, and is exact
// enough for LSH banding's candidate-generation purpose.
func SeededSum64(seed uint64, data []byte) uint64 {
	d := xxhash.New()

	var seedBuf [8]byte
	putUint64(seedBuf[:], seed)
	_, _ = d.Write(seedBuf[:])
	_, _ = d.Write(data)

	return d.Sum64()
}

func putUint64(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}
