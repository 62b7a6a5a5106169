// Package minhash computes MinHash bucket values over a seeded hash family.
package minhash

import (
	"math"

	"doubri/internal/hash"
)

// Buckets computes num MinHash values using hash functions seed begin,
// begin+1, ..., begin+num-1: for each seed, the minimum hash of every
// feature. If features is empty, every bucket value is math.MaxUint32 (no
// feature to minimize over, matching the all-ones sentinel of an empty
// feature set).
func Buckets(features []string, begin, num uint32) []uint32 {
	out := make([]uint32, num)
	for i := uint32(0); i < num; i++ {
		seed := uint64(begin + i)
		min := uint32(math.MaxUint32)
		for _, f := range features {
			h := uint32(hash.SeededSum64(seed, []byte(f)))
			if h < min {
				min = h
			}
		}
		out[i] = min
	}

	return out
}
