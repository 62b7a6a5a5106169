// Package shardio opens and creates JSONL shard files, transparently
// applying the stream compression implied by a file's extension.
//
// Unlike the whole-buffer Compressor/Decompressor shape used elsewhere for
// small, randomly-accessed payloads, shardio wraps io.Reader/io.Writer
// directly: shards are appended to and scanned line by line, and can run to
// gigabytes, so buffering a whole shard in memory is not an option.
package shardio

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	kzstd "github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"doubri/errs"
	"doubri/format"
)

// CodecForPath infers a format.Codec from path's extension.
func CodecForPath(path string) format.Codec {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return format.CodecGzip
	case strings.HasSuffix(path, ".zst"):
		return format.CodecZstd
	case strings.HasSuffix(path, ".s2"):
		return format.CodecS2
	case strings.HasSuffix(path, ".lz4"):
		return format.CodecLZ4
	default:
		return format.CodecNone
	}
}

// Open opens path for reading, returning a stream that transparently
// decompresses according to CodecForPath(path). Closing the returned
// ReadCloser closes both the decompressor and the underlying file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "shardio.Open", path, err)
	}

	rc, err := wrapReader(CodecForPath(path), f)
	if err != nil {
		f.Close()
		return nil, errs.New(errs.IoOpen, "shardio.Open", path, err)
	}

	return rc, nil
}

// Create creates (truncating) path for writing, compressing according to
// CodecForPath(path). Closing the returned WriteCloser flushes and closes
// both the compressor and the underlying file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "shardio.Create", path, err)
	}

	wc, err := wrapWriter(CodecForPath(path), f)
	if err != nil {
		f.Close()
		return nil, errs.New(errs.IoOpen, "shardio.Create", path, err)
	}

	return wc, nil
}

type nopFile struct {
	io.Reader
	file *os.File
}

func (n nopFile) Close() error { return n.file.Close() }

type closerPair struct {
	io.Writer
	closers []io.Closer
}

func (c closerPair) Write(p []byte) (int, error) { return c.Writer.Write(p) }

func (c closerPair) Close() error {
	for i := 0; i < len(c.closers); i++ {
		if err := c.closers[i].Close(); err != nil {
			return err
		}
	}

	return nil
}

func wrapReader(codec format.Codec, f *os.File) (io.ReadCloser, error) {
	switch codec {
	case format.CodecNone:
		return f, nil
	case format.CodecGzip:
		gr, err := gzip.NewReader(bufio.NewReader(f))
		if err != nil {
			return nil, err
		}

		return readerWithFile{ReadCloser: gr, file: f}, nil
	case format.CodecS2:
		return nopFile{Reader: s2.NewReader(f), file: f}, nil
	case format.CodecLZ4:
		return nopFile{Reader: lz4.NewReader(f), file: f}, nil
	case format.CodecZstd:
		dec, err := kzstd.NewReader(f)
		if err != nil {
			return nil, err
		}

		return zstdReaderWithFile{dec: dec, file: f}, nil
	default:
		return f, nil
	}
}

type readerWithFile struct {
	io.ReadCloser
	file *os.File
}

func (r readerWithFile) Close() error {
	err1 := r.ReadCloser.Close()
	err2 := r.file.Close()
	if err1 != nil {
		return err1
	}

	return err2
}

type zstdReaderWithFile struct {
	dec  *kzstd.Decoder
	file *os.File
}

func (z zstdReaderWithFile) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z zstdReaderWithFile) Close() error {
	z.dec.Close()
	return z.file.Close()
}

func wrapWriter(codec format.Codec, f *os.File) (io.WriteCloser, error) {
	switch codec {
	case format.CodecNone:
		return f, nil
	case format.CodecGzip:
		gw := gzip.NewWriter(f)
		return closerPair{Writer: gw, closers: []io.Closer{gw, f}}, nil
	case format.CodecS2:
		sw := s2.NewWriter(f)
		return closerPair{Writer: sw, closers: []io.Closer{sw, f}}, nil
	case format.CodecLZ4:
		lw := lz4.NewWriter(f)
		return closerPair{Writer: lw, closers: []io.Closer{lw, f}}, nil
	case format.CodecZstd:
		zw, err := kzstd.NewWriter(f)
		if err != nil {
			return nil, err
		}

		return closerPair{Writer: zw, closers: []io.Closer{zw, f}}, nil
	default:
		return f, nil
	}
}
