package signature

import (
	"io"
	"os"

	"doubri/errs"
)

// Reader opens an existing ".mh" file and serves one bucket column at a
// time without loading the whole file into memory.
type Reader struct {
	f    *os.File
	path string
	hdr  header
}

// Open parses the header of path and returns a Reader positioned to serve
// ReadBucket calls.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "signature.Open", path, err)
	}

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, errs.New(errs.IoRead, "signature.Open", path, err)
	}

	hdr, err := decodeHeader(buf, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{f: f, path: path, hdr: hdr}, nil
}

func (r *Reader) NumItems() uint32      { return r.hdr.NumItems }
func (r *Reader) NumHashValues() uint32 { return r.hdr.NumHashValues }
func (r *Reader) Begin() uint32         { return r.hdr.Begin }
func (r *Reader) End() uint32           { return r.hdr.End }

// ReadBucket reads the full column of big-endian hash words for bucket
// bucketNumber, across every item in the file, into buffer (which must be
// at least NumItems()*NumHashValues()*4 bytes). It returns the slice of
// buffer actually filled.
func (r *Reader) ReadBucket(bucketNumber uint32, buffer []byte) ([]byte, error) {
	if bucketNumber < r.hdr.Begin || bucketNumber >= r.hdr.End {
		return nil, errs.New(errs.OutOfRange, "signature.Reader.ReadBucket", r.path, nil)
	}

	bytesPerItem := int(r.hdr.NumHashValues) * 4
	numSectors := int(r.hdr.NumItems) / sectorSize
	remaining := int(r.hdr.NumItems) % sectorSize
	bytesPerSectorOneBucket := sectorSize * bytesPerItem
	bytesPerSector := int(r.hdr.End-r.hdr.Begin) * bytesPerSectorOneBucket
	bucketIdx := int(bucketNumber - r.hdr.Begin)

	total := int(r.hdr.NumItems) * bytesPerItem
	if len(buffer) < total {
		return nil, errs.New(errs.InconsistentSize, "signature.Reader.ReadBucket", r.path, nil)
	}
	out := buffer[:total]

	p := 0
	for sector := 0; sector < numSectors; sector++ {
		offset := headerSize + bytesPerSector*sector + bytesPerSectorOneBucket*bucketIdx
		if err := r.readAt(int64(offset), out[p:p+bytesPerSectorOneBucket]); err != nil {
			return nil, err
		}
		p += bytesPerSectorOneBucket
	}

	if remaining > 0 {
		bytes := remaining * bytesPerItem
		offset := headerSize + bytesPerSector*numSectors + bytes*bucketIdx
		if err := r.readAt(int64(offset), out[p:p+bytes]); err != nil {
			return nil, err
		}
		p += bytes
	}

	return out[:p], nil
}

func (r *Reader) readAt(offset int64, dst []byte) error {
	if _, err := r.f.Seek(offset, io.SeekStart); err != nil {
		return errs.New(errs.IoSeek, "signature.Reader.readAt", r.path, err)
	}

	if _, err := io.ReadFull(r.f, dst); err != nil {
		return errs.New(errs.IoRead, "signature.Reader.readAt", r.path, err)
	}

	return nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return errs.New(errs.IoOpen, "signature.Reader.Close", r.path, err)
	}

	return nil
}
