package signature

import (
	"os"

	"doubri/errs"
	"doubri/internal/options"
)

// Option configures a Writer.
type Option = options.Option[*Writer]

// WithFileMode overrides the file permission bits used when creating the
// store (default 0o644).
func WithFileMode(mode os.FileMode) Option {
	return options.NoError(func(w *Writer) { w.fileMode = mode })
}

// Writer appends MinHash bucket values one item at a time, buffering up to
// sectorSize items per bucket column and flushing bucket-major chunks to
// disk so the Reader can later seek directly to one bucket's column.
type Writer struct {
	f        *os.File
	path     string
	fileMode os.FileMode

	numHashValues uint32
	begin, end    uint32

	bufs     [][]byte // one per bucket in [begin, end), each sectorSize*numHashValues*4 bytes
	i        uint32   // items buffered in the current, not-yet-flushed sector
	numItems uint32
}

// NewWriter creates path and writes the 32-byte header. numHashValues is the
// number of hash words per bucket per item; begin/end is the half-open band
// range this file covers.
func NewWriter(path string, numHashValues, begin, end uint32, opts ...Option) (*Writer, error) {
	w := &Writer{path: path, fileMode: 0o644, numHashValues: numHashValues, begin: begin, end: end}
	if err := options.Apply(w, opts...); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, w.fileMode)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "signature.NewWriter", path, err)
	}
	w.f = f

	hdr := header{
		NumItems:      0,
		BytesPerHash:  4,
		NumHashValues: numHashValues,
		Begin:         begin,
		End:           end,
		SectorSize:    sectorSize,
	}
	if _, err := f.Write(encodeHeader(hdr)); err != nil {
		f.Close()
		return nil, errs.New(errs.IoWrite, "signature.NewWriter", path, err)
	}

	n := end - begin
	w.bufs = make([][]byte, n)
	for j := range w.bufs {
		w.bufs[j] = make([]byte, sectorSize*numHashValues*4)
	}

	return w, nil
}

// Put appends one item. values must hold (end-begin)*numHashValues words,
// ordered bucket-major (bucket j's numHashValues words, for j in
// [begin,end), in order).
func (w *Writer) Put(values []uint32) error {
	want := int(w.end-w.begin) * int(w.numHashValues)
	if len(values) != want {
		return errs.New(errs.InconsistentSize, "signature.Writer.Put", w.path, nil)
	}

	if w.i >= sectorSize {
		if err := w.flush(); err != nil {
			return err
		}
	}

	off := int(w.i) * int(w.numHashValues) * 4
	for j := range w.bufs {
		dst := w.bufs[j][off : off+int(w.numHashValues)*4]
		for k := uint32(0); k < w.numHashValues; k++ {
			be.PutUint32(dst[k*4:k*4+4], values[int(j)*int(w.numHashValues)+int(k)])
		}
	}

	w.i++
	w.numItems++

	return nil
}

func (w *Writer) flush() error {
	if w.i == 0 {
		return nil
	}

	bytesPerItem := int(w.numHashValues) * 4
	n := int(w.i) * bytesPerItem

	for _, buf := range w.bufs {
		if _, err := w.f.Write(buf[:n]); err != nil {
			return errs.New(errs.IoWrite, "signature.Writer.flush", w.path, err)
		}
	}

	w.i = 0

	return nil
}

// NumItems reports how many items have been written so far.
func (w *Writer) NumItems() uint32 { return w.numItems }

// Close flushes the last partial sector, patches the item count in the
// header, and closes the file.
func (w *Writer) Close() error {
	if err := w.flush(); err != nil {
		w.f.Close()
		return err
	}

	if _, err := w.f.Seek(8, 0); err != nil {
		w.f.Close()
		return errs.New(errs.IoSeek, "signature.Writer.Close", w.path, err)
	}

	var buf [4]byte
	le.PutUint32(buf[:], w.numItems)
	if _, err := w.f.Write(buf[:]); err != nil {
		w.f.Close()
		return errs.New(errs.IoWrite, "signature.Writer.Close", w.path, err)
	}

	return w.f.Close()
}
