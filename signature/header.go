// Package signature implements the ".mh" bucket-major-in-chunks store: one
// file per input shard, holding every item's MinHash bucket values for a
// contiguous band range [Begin, End).
package signature

import (
	"doubri/endian"
	"doubri/errs"
)

const (
	magic      = "DoubriH4"
	headerSize = 32
	// sectorSize is the chunk size (in items) the writer buffers before
	// flushing a bucket-major block to disk, and the reader's seek stride.
	sectorSize = 512
)

// header is the fixed 32-byte ".mh" header. Fields are little-endian; the
// bucket payload that follows is big-endian (see Reader/Writer).
type header struct {
	NumItems      uint32
	BytesPerHash  uint32
	NumHashValues uint32
	Begin         uint32
	End           uint32
	SectorSize    uint32
}

var (
	le = endian.GetLittleEndianEngine()
	be = endian.GetBigEndianEngine()
)

func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], magic)
	le.PutUint32(buf[8:12], h.NumItems)
	le.PutUint32(buf[12:16], h.BytesPerHash)
	le.PutUint32(buf[16:20], h.NumHashValues)
	le.PutUint32(buf[20:24], h.Begin)
	le.PutUint32(buf[24:28], h.End)
	le.PutUint32(buf[28:32], h.SectorSize)

	return buf
}

func decodeHeader(buf []byte, path string) (header, error) {
	if len(buf) < headerSize {
		return header{}, errs.New(errs.BadHeader, "signature.decodeHeader", path, nil)
	}

	if string(buf[0:8]) != magic {
		return header{}, errs.New(errs.BadMagic, "signature.decodeHeader", path, nil)
	}

	h := header{
		NumItems:      le.Uint32(buf[8:12]),
		BytesPerHash:  le.Uint32(buf[12:16]),
		NumHashValues: le.Uint32(buf[16:20]),
		Begin:         le.Uint32(buf[20:24]),
		End:           le.Uint32(buf[24:28]),
		SectorSize:    le.Uint32(buf[28:32]),
	}

	if h.SectorSize != sectorSize {
		return header{}, errs.New(errs.BadHeader, "signature.decodeHeader", path, nil)
	}

	if h.BytesPerHash != 4 {
		return header{}, errs.New(errs.BadHeader, "signature.decodeHeader", path, nil)
	}

	return h, nil
}
