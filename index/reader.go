package index

import (
	"io"
	"os"

	"doubri/errs"
)

// Reader streams Records from an existing ".idx.NNNNN" file in on-disk
// (bucket-sorted) order.
type Reader struct {
	f    *os.File
	path string
	hdr  header
}

// Open parses the header of path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "index.Open", path, err)
	}

	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, errs.New(errs.IoRead, "index.Open", path, err)
	}

	hdr, err := decodeHeader(buf, path)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{f: f, path: path, hdr: hdr}, nil
}

func (r *Reader) BucketNumber() uint32   { return r.hdr.BucketNumber }
func (r *Reader) BytesPerBucket() uint32 { return r.hdr.BytesPerBucket }
func (r *Reader) NumTotalItems() uint64  { return r.hdr.NumTotalItems }
func (r *Reader) NumActiveItems() uint64 { return r.hdr.NumActiveItems }

// recordSize is the on-disk size of one record.
func (r *Reader) recordSize() int { return int(r.hdr.BytesPerBucket) + trailerSize }

// ReadRaw reads the next record's raw bytes (bucket then trailer) into a
// fresh buffer. It returns io.EOF when the file is exhausted.
func (r *Reader) ReadRaw() ([]byte, error) {
	buf := make([]byte, r.recordSize())
	if _, err := io.ReadFull(r.f, buf); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}

		return nil, errs.New(errs.IoRead, "index.Reader.ReadRaw", r.path, err)
	}

	return buf, nil
}

// ReadRecord reads the next record in file order. It returns io.EOF when
// the file is exhausted.
func (r *Reader) ReadRecord() (Record, error) {
	buf, err := r.ReadRaw()
	if err != nil {
		return Record{}, err
	}

	group, item := decodeTrailer(buf[r.hdr.BytesPerBucket:])

	return Record{Bucket: buf[:r.hdr.BytesPerBucket], Group: group, Item: item}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return errs.New(errs.IoOpen, "index.Reader.Close", r.path, err)
	}

	return nil
}
