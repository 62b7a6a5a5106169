// Package flagstore implements the ".dup" flag file: one byte per item,
// recording whether that item survives deduplication.
package flagstore

import (
	"os"

	"doubri/errs"
)

const (
	// Active marks an item that has not been found to duplicate anything.
	Active byte = ' '
	// Pending marks an item killed during the current pass, not yet
	// promoted to Dead. Distinguishing Pending from Dead lets the pass's
	// index writer leave out exactly the items this pass detected.
	Pending byte = 'd'
	// Dead marks an item found to be a duplicate in an earlier pass; it
	// never returns to Active. Later passes still sort and scan it like any
	// other item.
	Dead byte = 'D'
)

// Flags is a flat byte-per-item array, one byte per global ordinal of a
// group's source manifest.
type Flags []byte

// New returns n bytes, all Active.
func New(n int) Flags {
	f := make(Flags, n)
	for i := range f {
		f[i] = Active
	}

	return f
}

// Load reads an existing flag file. It is an error if its length does not
// equal want (the manifest's total item count); a negative want skips the
// length check.
func Load(path string, want int) (Flags, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "flagstore.Load", path, err)
	}

	if want >= 0 && len(b) != want {
		return nil, errs.New(errs.InconsistentSize, "flagstore.Load", path, nil)
	}

	return Flags(b), nil
}

// Save writes the flag file verbatim.
func Save(path string, f Flags) error {
	if err := os.WriteFile(path, f, 0o644); err != nil {
		return errs.New(errs.IoWrite, "flagstore.Save", path, err)
	}

	return nil
}

// IsActive reports whether item i currently survives (neither Pending nor
// Dead).
func (f Flags) IsActive(i int) bool { return f[i] == Active }

// IsDead reports whether item i has been permanently excluded.
func (f Flags) IsDead(i int) bool { return f[i] == Dead }

// MarkPass sets item i to Pending, the first half of the two-phase scheme:
// a pass marks losers Pending without disturbing Active reads still in
// flight for the same bucket value.
func (f Flags) MarkPass(i int) { f[i] = Pending }

// PromotePass converts every Pending byte to Dead, committing a pass's
// kills. Called once per bucket pass after the adjacent-equality scan
// completes.
func (f Flags) PromotePass() {
	for i, b := range f {
		if b == Pending {
			f[i] = Dead
		}
	}
}

// CountActive returns the number of Active bytes.
func (f Flags) CountActive() int {
	n := 0
	for _, b := range f {
		if b == Active {
			n++
		}
	}

	return n
}

// CountPending returns the number of Pending bytes, i.e. how many items
// this pass detected as duplicates before promotion.
func (f Flags) CountPending() int {
	n := 0
	for _, b := range f {
		if b == Pending {
			n++
		}
	}

	return n
}
