// Package filter implements the final "apply" step: reading a JSONL shard
// from stdin and writing only the lines whose corresponding flag is
// Active, using either the narrow per-source slice of a group's flag file
// (FilterEach) or the group's entire flag file against a full
// concatenation of its sources (FilterWhole).
package filter

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"doubri/errs"
	"doubri/flagstore"
	"doubri/manifest"
	"doubri/shardio"
)

// Stats reports how many lines were read and kept.
type Stats struct {
	NumTotal  uint64
	NumActive uint64
}

// FilterEach filters the JSONL stream in, which must correspond exactly to
// the source manifest entry matching target, writing surviving lines to
// out. It reads only the slice of flagPath covering that entry rather than
// the whole flag file.
func FilterEach(flagPath string, m *manifest.Manifest, target string, in io.Reader, out io.Writer) (Stats, error) {
	entry, err := m.Find(target)
	if err != nil {
		return Stats{}, err
	}

	f, err := os.Open(flagPath)
	if err != nil {
		return Stats{}, errs.New(errs.IoOpen, "filter.FilterEach", flagPath, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Stats{}, errs.New(errs.IoOpen, "filter.FilterEach", flagPath, err)
	}

	if uint64(st.Size()) != m.Total() {
		return Stats{}, errs.New(errs.InconsistentSize, "filter.FilterEach", flagPath,
			fmt.Errorf("flag file has %d bytes, manifest totals %d items", st.Size(), m.Total()))
	}

	buf := make([]byte, entry.NumItems)
	if _, err := f.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return Stats{}, errs.New(errs.IoSeek, "filter.FilterEach", flagPath, err)
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return Stats{}, errs.New(errs.IoRead, "filter.FilterEach", flagPath, err)
	}

	return filterLines(flagstore.Flags(buf), in, out)
}

// FilterWhole filters a JSONL stream that is the full canonical
// concatenation of every group source, against that group's entire flag
// file.
func FilterWhole(flagPath string, in io.Reader, out io.Writer) (Stats, error) {
	flags, err := flagstore.Load(flagPath, -1)
	if err != nil {
		return Stats{}, err
	}

	return filterLines(flags, in, out)
}

func filterLines(flags flagstore.Flags, in io.Reader, out io.Writer) (Stats, error) {
	size := len(flags)

	sc := shardio.LineScanner(in)
	w := bufio.NewWriter(out)

	var stats Stats
	i := 0
	for sc.Scan() {
		if i >= size {
			return stats, errs.New(errs.OutOfRange, "filter.filterLines", "", fmt.Errorf("stdin has more than %d lines", size))
		}

		if flags.IsActive(i) {
			if _, err := w.Write(sc.Bytes()); err != nil {
				return stats, errs.New(errs.IoWrite, "filter.filterLines", "", err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return stats, errs.New(errs.IoWrite, "filter.filterLines", "", err)
			}
			stats.NumActive++
		}

		stats.NumTotal++
		i++
	}

	if err := sc.Err(); err != nil {
		return stats, errs.New(errs.IoRead, "filter.filterLines", "", err)
	}

	if i < size {
		return stats, errs.New(errs.OutOfRange, "filter.filterLines", "", fmt.Errorf("stdin has fewer than %d lines", size))
	}

	if err := w.Flush(); err != nil {
		return stats, errs.New(errs.IoWrite, "filter.filterLines", "", err)
	}

	return stats, nil
}
