// Package index implements the ".idx.NNNNN" sorted record store: one file
// per LSH band, holding every active item's bucket bytes paired with its
// (group, item) trailer, sorted by bucket bytes for k-way merging.
package index

import (
	"fmt"

	"doubri/endian"
	"doubri/errs"
)

const (
	magic      = "DoubriI4"
	headerSize = 32
)

var (
	le = endian.GetLittleEndianEngine()
	be = endian.GetBigEndianEngine()
)

// header is the fixed 32-byte ".idx" header. Field order is canonicalized
// to (bucket_number, bytes_per_bucket, num_total_items, num_active_items).
type header struct {
	BucketNumber   uint32
	BytesPerBucket uint32
	NumTotalItems  uint64
	NumActiveItems uint64
}

func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], magic)
	le.PutUint32(buf[8:12], h.BucketNumber)
	le.PutUint32(buf[12:16], h.BytesPerBucket)
	le.PutUint64(buf[16:24], h.NumTotalItems)
	le.PutUint64(buf[24:32], h.NumActiveItems)

	return buf
}

func decodeHeader(buf []byte, path string) (header, error) {
	if len(buf) < headerSize {
		return header{}, errs.New(errs.BadHeader, "index.decodeHeader", path, nil)
	}

	if string(buf[0:8]) != magic {
		return header{}, errs.New(errs.BadMagic, "index.decodeHeader", path, nil)
	}

	return header{
		BucketNumber:   le.Uint32(buf[8:12]),
		BytesPerBucket: le.Uint32(buf[12:16]),
		NumTotalItems:  le.Uint64(buf[16:24]),
		NumActiveItems: le.Uint64(buf[24:32]),
	}, nil
}

// FileName returns "<basename>.idx.NNNNN" for a given bucket number, zero
// padded to 5 digits so index files list in bucket order.
func FileName(basename string, bucketNumber uint32) string {
	return fmt.Sprintf("%s.idx.%05d", basename, bucketNumber)
}
