// Package manifest reads and writes the source manifest (".src") that fixes
// the canonical concatenation order of a group's signature files and maps
// per-file item ordinals onto one flat global-ordinal space.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"doubri/errs"
)

// GroupID identifies one dedup group (the unit the within-group
// deduplicator and flag/index files are scoped to).
type GroupID uint16

// ItemID is a global ordinal within one group, obtained by concatenating
// that group's signature files in manifest order. Only the low 48 bits are
// ever meaningful on disk.
type ItemID uint64

const maxItemID = 1<<48 - 1

// Entry is one source file contributing NumItems consecutive ordinals
// starting at Offset.
type Entry struct {
	NumItems uint64
	Path     string
	Offset   uint64
}

// Manifest is the parsed contents of a ".src" file.
type Manifest struct {
	Group   GroupID
	Entries []Entry
}

// Total returns the number of items across all entries, i.e. len(F) for the
// group's flag file.
func (m *Manifest) Total() uint64 {
	var n uint64
	for _, e := range m.Entries {
		n += e.NumItems
	}

	return n
}

// Find returns the entry whose Path equals target, matching either the full
// path or its base name, and reports whether it was found exactly once.
func (m *Manifest) Find(target string) (Entry, error) {
	base := baseName(target)

	var found *Entry
	for i := range m.Entries {
		e := &m.Entries[i]
		if e.Path == target || baseName(e.Path) == base {
			if found != nil {
				return Entry{}, errs.New(errs.Duplicate, "manifest.Find", target, nil)
			}
			found = e
		}
	}

	if found == nil {
		return Entry{}, errs.New(errs.NotFound, "manifest.Find", target, nil)
	}

	return *found, nil
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}

	return p
}

// New builds a Manifest from an ordered list of (numItems, path) pairs,
// computing each entry's Offset as the running sum of preceding NumItems.
func New(group GroupID, files []struct {
	NumItems uint64
	Path     string
},
) *Manifest {
	m := &Manifest{Group: group, Entries: make([]Entry, len(files))}

	var offset uint64
	for i, f := range files {
		m.Entries[i] = Entry{NumItems: f.NumItems, Path: f.Path, Offset: offset}
		offset += f.NumItems
	}

	return m
}

// Write serializes the manifest as "#G <group>\n" followed by one
// "<num_items>\t<path>\n" line per entry, in order.
func Write(path string, m *Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.IoOpen, "manifest.Write", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "#G %d\n", m.Group); err != nil {
		return errs.New(errs.IoWrite, "manifest.Write", path, err)
	}

	for _, e := range m.Entries {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", e.NumItems, e.Path); err != nil {
			return errs.New(errs.IoWrite, "manifest.Write", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return errs.New(errs.IoWrite, "manifest.Write", path, err)
	}

	return nil
}

// Load parses a ".src" file: a "#G <group>" header line followed by
// "<num_items>\t<path>" lines, and computes each entry's Offset.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "manifest.Load", path, err)
	}
	defer f.Close()

	return parse(path, f)
}

func parse(path string, r io.Reader) (*Manifest, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		return nil, errs.New(errs.BadHeader, "manifest.Load", path, io.ErrUnexpectedEOF)
	}

	header := sc.Text()
	fields := strings.Fields(header)
	if len(fields) != 2 || fields[0] != "#G" {
		return nil, errs.New(errs.BadHeader, "manifest.Load", path, fmt.Errorf("expected '#G <group>', got %q", header))
	}

	group, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return nil, errs.New(errs.BadHeader, "manifest.Load", path, err)
	}

	m := &Manifest{Group: GroupID(group)}

	var offset uint64
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}

		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return nil, errs.New(errs.BadHeader, "manifest.Load", path, fmt.Errorf("malformed entry line %q", line))
		}

		n, err := strconv.ParseUint(line[:tab], 10, 64)
		if err != nil {
			return nil, errs.New(errs.BadHeader, "manifest.Load", path, err)
		}

		m.Entries = append(m.Entries, Entry{NumItems: n, Path: line[tab+1:], Offset: offset})
		offset += n
	}

	if err := sc.Err(); err != nil {
		return nil, errs.New(errs.IoRead, "manifest.Load", path, err)
	}

	return m, nil
}

// CheckItemID returns id as an ItemID if it fits in 48 bits and reports
// errs.OutOfRange if it does not.
func CheckItemID(id uint64) (ItemID, error) {
	if id > maxItemID {
		return 0, errs.New(errs.OutOfRange, "manifest.CheckItemID", "", fmt.Errorf("item id %d exceeds 48 bits", id))
	}

	return ItemID(id), nil
}
