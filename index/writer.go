package index

import (
	"os"

	"doubri/errs"
)

// Writer appends Records in the caller's order (the caller is responsible
// for presenting them pre-sorted by bucket bytes) and patches the item
// counts into the header on Close.
type Writer struct {
	f              *os.File
	path           string
	bytesPerBucket uint32
	numTotal       uint64
	numActive      uint64
}

// NewWriter creates path and writes the header with bucketNumber and
// bytesPerBucket fixed; item counts start at zero and are finalized by
// SetCounts/Close.
func NewWriter(path string, bucketNumber, bytesPerBucket uint32) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "index.NewWriter", path, err)
	}

	hdr := header{BucketNumber: bucketNumber, BytesPerBucket: bytesPerBucket}
	if _, err := f.Write(encodeHeader(hdr)); err != nil {
		f.Close()
		return nil, errs.New(errs.IoWrite, "index.NewWriter", path, err)
	}

	return &Writer{f: f, path: path, bytesPerBucket: bytesPerBucket}, nil
}

// WriteRecord appends one record. len(r.Bucket) must equal bytesPerBucket.
func (w *Writer) WriteRecord(r Record) error {
	if uint32(len(r.Bucket)) != w.bytesPerBucket {
		return errs.New(errs.InconsistentSize, "index.Writer.WriteRecord", w.path, nil)
	}

	trailer, err := encodeTrailer(r.Group, r.Item)
	if err != nil {
		return err
	}

	if _, err := w.f.Write(r.Bucket); err != nil {
		return errs.New(errs.IoWrite, "index.Writer.WriteRecord", w.path, err)
	}

	if _, err := w.f.Write(trailer[:]); err != nil {
		return errs.New(errs.IoWrite, "index.Writer.WriteRecord", w.path, err)
	}

	w.numTotal++
	w.numActive++

	return nil
}

// WriteRaw appends one already-encoded record (bucket bytes followed by
// the 8-byte trailer) verbatim. The merger shuttles records between index
// files through this path so nothing is decoded and re-encoded per record.
func (w *Writer) WriteRaw(rec []byte) error {
	if len(rec) != int(w.bytesPerBucket)+trailerSize {
		return errs.New(errs.InconsistentSize, "index.Writer.WriteRaw", w.path, nil)
	}

	if _, err := w.f.Write(rec); err != nil {
		return errs.New(errs.IoWrite, "index.Writer.WriteRaw", w.path, err)
	}

	w.numTotal++
	w.numActive++

	return nil
}

// SetCounts overrides the total/active item counts recorded in the header.
// The within-group deduplicator writes only surviving records but must
// still record the true total (including duplicates) in the header, so it
// calls this before Close instead of relying on WriteRecord's per-call
// counters.
func (w *Writer) SetCounts(total, active uint64) {
	w.numTotal = total
	w.numActive = active
}

// Close patches the header's item counts and closes the file.
func (w *Writer) Close() error {
	if _, err := w.f.Seek(16, 0); err != nil {
		w.f.Close()
		return errs.New(errs.IoSeek, "index.Writer.Close", w.path, err)
	}

	var buf [16]byte
	le.PutUint64(buf[0:8], w.numTotal)
	le.PutUint64(buf[8:16], w.numActive)
	if _, err := w.f.Write(buf[:]); err != nil {
		w.f.Close()
		return errs.New(errs.IoWrite, "index.Writer.Close", w.path, err)
	}

	return w.f.Close()
}
