package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededSum64_Deterministic(t *testing.T) {
	data := []byte("a five character ngram")
	a := SeededSum64(7, data)
	b := SeededSum64(7, data)
	assert.Equal(t, a, b)
}

func TestSeededSum64_DistinctSeedsDiffer(t *testing.T) {
	data := []byte("a five character ngram")
	seen := make(map[uint64]struct{})
	for seed := uint64(0); seed < 32; seed++ {
		seen[SeededSum64(seed, data)] = struct{}{}
	}
	assert.Len(t, seen, 32, "expected 32 distinct hash values from 32 distinct seeds")
}

func TestSeededSum64_DistinctDataDiffers(t *testing.T) {
	a := SeededSum64(0, []byte("foo"))
	b := SeededSum64(0, []byte("bar"))
	assert.NotEqual(t, a, b)
}
