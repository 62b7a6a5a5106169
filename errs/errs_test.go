package errs

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrap(t *testing.T) {
	base := io.ErrUnexpectedEOF
	e := New(IoRead, "signature.Reader.ReadBucket", "shard.mh", base)

	assert.ErrorIs(t, e, io.ErrUnexpectedEOF)
	assert.Equal(t, base, errors.Unwrap(e))
}

func TestErrorIsByKind(t *testing.T) {
	a := New(NotFound, "index.Open", "g0.idx.00000", nil)
	b := New(NotFound, "flagstore.Open", "shard.dup", nil)
	c := New(BadMagic, "index.Open", "g0.idx.00000", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "bad-magic", BadMagic.String())
	assert.Equal(t, "unknown", Kind(255).String())
}

func TestErrorMessageIncludesPath(t *testing.T) {
	e := New(BadHeader, "index.Open", "g0.idx.00000", errors.New("short read"))
	assert.Contains(t, e.Error(), "g0.idx.00000")
	assert.Contains(t, e.Error(), "bad-header")
}
