package index

import (
	"bytes"

	"doubri/errs"
	"doubri/manifest"
)

const trailerSize = 8

// Record is one entry of an index file: a bucket's raw bytes paired with
// the (group, item) that produced it.
type Record struct {
	Bucket []byte
	Group  manifest.GroupID
	Item   manifest.ItemID
}

// CompareBucket orders two records by bucket bytes alone (lexicographic,
// i.e. numeric order for the big-endian bucket encoding used throughout).
func (r Record) CompareBucket(o Record) int {
	return bytes.Compare(r.Bucket, o.Bucket)
}

// Less implements the full ordering relation: bucket bytes first, then
// (group, item) ascending as the deterministic tiebreak.
func (r Record) Less(o Record) bool {
	if c := r.CompareBucket(o); c != 0 {
		return c < 0
	}

	if r.Group != o.Group {
		return r.Group < o.Group
	}

	return r.Item < o.Item
}

// encodeTrailer packs (group, item) into the 8-byte big-endian trailer
// "group<<48 | item".
func encodeTrailer(g manifest.GroupID, i manifest.ItemID) ([trailerSize]byte, error) {
	var buf [trailerSize]byte

	if uint64(i) > 1<<48-1 {
		return buf, errs.New(errs.OutOfRange, "index.encodeTrailer", "", nil)
	}

	v := uint64(g)<<48 | uint64(i)
	be.PutUint64(buf[:], v)

	return buf, nil
}

// PutTrailer encodes (group, item) into dst's first 8 bytes, for callers
// assembling a full raw record (bucket bytes then trailer) in one buffer.
func PutTrailer(dst []byte, g manifest.GroupID, i manifest.ItemID) error {
	t, err := encodeTrailer(g, i)
	if err != nil {
		return err
	}

	copy(dst, t[:])

	return nil
}

func decodeTrailer(buf []byte) (manifest.GroupID, manifest.ItemID) {
	v := be.Uint64(buf)

	return manifest.GroupID(v >> 48), manifest.ItemID(v & (1<<48 - 1))
}

// DecodeTrailer unpacks an 8-byte trailer into its (group, item) pair.
func DecodeTrailer(buf []byte) (manifest.GroupID, manifest.ItemID) {
	return decodeTrailer(buf)
}
