package merge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doubri/index"
	"doubri/manifest"
)

func writeBucketIndex(t *testing.T, basename string, bucketNumber uint32, group manifest.GroupID, buckets []byte, items []manifest.ItemID) {
	t.Helper()

	w, err := index.NewWriter(index.FileName(basename, bucketNumber), bucketNumber, 1)
	require.NoError(t, err)

	for i, it := range items {
		require.NoError(t, w.WriteRecord(index.Record{Bucket: []byte{buckets[i]}, Group: group, Item: it}))
	}

	require.NoError(t, w.Close())
}

func TestCrossGroupMerge(t *testing.T) {
	dir := t.TempDir()
	g0 := filepath.Join(dir, "g0")
	g1 := filepath.Join(dir, "g1")
	out := filepath.Join(dir, "merged")

	// group 0 bucket 0 index: items with bucket values 0x01, 0x02
	writeBucketIndex(t, g0, 0, 0, []byte{0x01, 0x02}, []manifest.ItemID{0, 1})
	// group 1 bucket 0 index: items with bucket values 0x02, 0x03
	writeBucketIndex(t, g1, 0, 1, []byte{0x02, 0x03}, []manifest.ItemID{0, 1})

	m := New([]Input{{Basename: g0, Group: 0}, {Basename: g1, Group: 1}}, out)

	stats, err := m.MergeBucket(0)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), stats.NumTotalItems)
	assert.Equal(t, uint64(3), stats.NumSurvivors)
	assert.Equal(t, uint64(1), stats.NumDuplicates)

	r, err := index.Open(index.FileName(out, 0))
	require.NoError(t, err)
	defer r.Close()

	var got []index.Record
	for {
		rec, err := r.ReadRecord()
		if err != nil {
			break
		}
		got = append(got, rec)
	}

	require.Len(t, got, 3)
	assert.Equal(t, byte(0x01), got[0].Bucket[0])
	assert.Equal(t, manifest.GroupID(0), got[0].Group)
	assert.Equal(t, manifest.ItemID(0), got[0].Item)

	assert.Equal(t, byte(0x02), got[1].Bucket[0])
	assert.Equal(t, manifest.GroupID(0), got[1].Group)
	assert.Equal(t, manifest.ItemID(1), got[1].Item)

	assert.Equal(t, byte(0x03), got[2].Bucket[0])
	assert.Equal(t, manifest.GroupID(1), got[2].Group)
	assert.Equal(t, manifest.ItemID(1), got[2].Item)

	require.NoError(t, m.WriteDeltas())

	deltaG1, err := ReadDelta(DeltaFileName(out, 1))
	require.NoError(t, err)
	assert.Equal(t, []manifest.ItemID{0}, deltaG1)
}

func TestMergeBucketRejectsMismatchedBytesPerBucket(t *testing.T) {
	dir := t.TempDir()
	g0 := filepath.Join(dir, "g0")
	g1 := filepath.Join(dir, "g1")
	out := filepath.Join(dir, "merged")

	w0, err := index.NewWriter(index.FileName(g0, 0), 0, 1)
	require.NoError(t, err)
	require.NoError(t, w0.WriteRecord(index.Record{Bucket: []byte{0x01}, Group: 0, Item: 0}))
	require.NoError(t, w0.Close())

	w1, err := index.NewWriter(index.FileName(g1, 0), 0, 2)
	require.NoError(t, err)
	require.NoError(t, w1.WriteRecord(index.Record{Bucket: []byte{0x01, 0x02}, Group: 1, Item: 0}))
	require.NoError(t, w1.Close())

	m := New([]Input{{Basename: g0, Group: 0}, {Basename: g1, Group: 1}}, out)
	_, err = m.MergeBucket(0)
	assert.Error(t, err)
}
