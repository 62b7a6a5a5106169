package index

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doubri/manifest"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g0.idx.00003")

	w, err := NewWriter(path, 3, 4)
	require.NoError(t, err)

	recs := []Record{
		{Bucket: []byte{0, 0, 0, 1}, Group: 0, Item: 10},
		{Bucket: []byte{0, 0, 0, 2}, Group: 1, Item: 20},
	}
	for _, r := range recs {
		require.NoError(t, w.WriteRecord(r))
	}
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint32(3), r.BucketNumber())
	assert.Equal(t, uint32(4), r.BytesPerBucket())
	assert.Equal(t, uint64(2), r.NumTotalItems())
	assert.Equal(t, uint64(2), r.NumActiveItems())

	got1, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, recs[0], got1)

	got2, err := r.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, recs[1], got2)

	_, err = r.ReadRecord()
	assert.Equal(t, io.EOF, err)
}

func TestRecordOrdering(t *testing.T) {
	a := Record{Bucket: []byte{0, 0, 0, 1}, Group: 5, Item: 1}
	b := Record{Bucket: []byte{0, 0, 0, 1}, Group: 2, Item: 9}
	c := Record{Bucket: []byte{0, 0, 0, 2}, Group: 0, Item: 0}

	assert.True(t, b.Less(a), "equal bucket bytes: lower group wins tiebreak")
	assert.True(t, a.Less(c))
	assert.Equal(t, 0, a.CompareBucket(b))
}

func TestTrailerRoundTrip(t *testing.T) {
	trailer, err := encodeTrailer(manifest.GroupID(0xABCD), manifest.ItemID(0x1234_5678_9))
	require.NoError(t, err)

	g, i := decodeTrailer(trailer[:])
	assert.Equal(t, manifest.GroupID(0xABCD), g)
	assert.Equal(t, manifest.ItemID(0x1234_5678_9), i)
}

func TestRawRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g0.idx.00001")

	w, err := NewWriter(path, 1, 2)
	require.NoError(t, err)

	raw := make([]byte, 2+trailerSize)
	raw[0], raw[1] = 0xAB, 0xCD
	require.NoError(t, PutTrailer(raw[2:], manifest.GroupID(7), manifest.ItemID(99)))
	require.NoError(t, w.WriteRaw(raw))

	require.Error(t, w.WriteRaw(raw[:5]), "short raw record must be rejected")
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	g, i := DecodeTrailer(got[2:])
	assert.Equal(t, manifest.GroupID(7), g)
	assert.Equal(t, manifest.ItemID(99), i)

	_, err = r.ReadRaw()
	assert.Equal(t, io.EOF, err)
}

func TestPutTrailerRejectsOversizedItem(t *testing.T) {
	var buf [trailerSize]byte
	err := PutTrailer(buf[:], 0, manifest.ItemID(1)<<48)
	assert.Error(t, err)
}

func TestWriteRecordWrongBucketSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g0.idx.00000")
	w, err := NewWriter(path, 0, 4)
	require.NoError(t, err)

	err = w.WriteRecord(Record{Bucket: []byte{1, 2, 3}})
	assert.Error(t, err)
	require.NoError(t, w.Close())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "out.idx.00042", FileName("out", 42))
}
