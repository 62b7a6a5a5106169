package signature

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.mh")

	w, err := NewWriter(path, 4, 0, 3)
	require.NoError(t, err)

	items := [][]uint32{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		{100, 101, 102, 103, 200, 201, 202, 203, 300, 301, 302, 303},
	}
	for _, it := range items {
		require.NoError(t, w.Put(it))
	}
	require.Equal(t, uint32(2), w.NumItems())
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint32(2), r.NumItems())
	assert.Equal(t, uint32(4), r.NumHashValues())
	assert.Equal(t, uint32(0), r.Begin())
	assert.Equal(t, uint32(3), r.End())

	buf := make([]byte, r.NumItems()*r.NumHashValues()*4)
	col, err := r.ReadBucket(1, buf)
	require.NoError(t, err)
	require.Len(t, col, int(r.NumItems())*int(r.NumHashValues())*4)

	// bucket 1, item 0 should be {5,6,7,8}; item 1 should be {200,201,202,203}
	assert.Equal(t, uint32(5), be.Uint32(col[0:4]))
	assert.Equal(t, uint32(8), be.Uint32(col[12:16]))
	assert.Equal(t, uint32(200), be.Uint32(col[16:20]))
	assert.Equal(t, uint32(203), be.Uint32(col[28:32]))
}

func TestReadBucketOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.mh")
	w, err := NewWriter(path, 2, 0, 2)
	require.NoError(t, err)
	require.NoError(t, w.Put([]uint32{1, 2, 3, 4}))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 64)
	_, err = r.ReadBucket(5, buf)
	assert.Error(t, err)
}

func TestPutWrongLengthIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.mh")
	w, err := NewWriter(path, 3, 0, 2)
	require.NoError(t, err)

	err = w.Put([]uint32{1, 2, 3})
	assert.Error(t, err)
	require.NoError(t, w.Close())
}

func TestMultiSectorFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.mh")
	w, err := NewWriter(path, 1, 0, 1)
	require.NoError(t, err)

	const n = sectorSize + 17
	for i := uint32(0); i < n; i++ {
		require.NoError(t, w.Put([]uint32{i}))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, uint32(n), r.NumItems())
	buf := make([]byte, n*4)
	col, err := r.ReadBucket(0, buf)
	require.NoError(t, err)
	for i := uint32(0); i < n; i++ {
		assert.Equal(t, i, be.Uint32(col[i*4:i*4+4]))
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mh")
	w, err := NewWriter(path, 1, 0, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	b[0] = 'X'
	require.NoError(t, os.WriteFile(path, b, 0o644))

	_, err = Open(path)
	assert.Error(t, err)
}
