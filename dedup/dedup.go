// Package dedup implements the within-group deduplicator: given a group's
// signature files, it loads one bucket column at a time, parallel-sorts
// item handles by bucket bytes, marks adjacent-equal runs as duplicates,
// and emits a sorted per-bucket index file plus the group's flag file.
package dedup

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"doubri/errs"
	"doubri/flagstore"
	"doubri/index"
	"doubri/internal/options"
	"doubri/internal/pool"
	"doubri/manifest"
	"doubri/signature"
)

// Option configures a Deduplicator at construction time.
type Option = options.Option[*Deduplicator]

// WithFlagFile loads an existing flag file once the sources are opened, so
// a rerun resumes from a previous run's marks instead of cold-starting
// all-active.
func WithFlagFile(path string) Option {
	return options.New(func(d *Deduplicator) error { return d.LoadFlags(path) })
}

// SourceFile is one signature file contributing a contiguous range of
// global ordinals, per the active source manifest.
type SourceFile struct {
	Path       string
	NumItems   uint64
	StartIndex uint64
}

// Stats summarizes one bucket pass, in the shape the dedup subcommand
// logs after each pass.
type Stats struct {
	BucketNumber    uint32
	NumActiveBefore int
	NumDetected     int
	NumActiveAfter  int
}

// Deduplicator holds the per-group state shared across all R bucket
// passes: the source file list, the arena for one bucket column in flight,
// the item-handle array, and the flag array.
type Deduplicator struct {
	files []SourceFile

	numItems      uint64
	bytesPerHash  uint32
	numHashValues uint32
	begin, end    uint32

	arena   *arena
	handles []manifest.ItemID
	flags   flagstore.Flags
}

// New opens every signature file in paths (in manifest order), validates
// that they share identical bytesPerHash/numHashValues/begin/end, and
// allocates the arena, handle array, and an all-active flag array sized to
// the total item count.
func New(paths []string, opts ...Option) (*Deduplicator, error) {
	d := &Deduplicator{}

	var have bool
	offset := uint64(0)
	for _, p := range paths {
		r, err := signature.Open(p)
		if err != nil {
			return nil, err
		}

		n := uint64(r.NumItems())
		if !have {
			d.bytesPerHash = 4
			d.numHashValues = r.NumHashValues()
			d.begin = r.Begin()
			d.end = r.End()
			have = true
		} else {
			if d.numHashValues != r.NumHashValues() || d.begin != r.Begin() || d.end != r.End() {
				r.Close()
				return nil, errs.New(errs.InconsistentSize, "dedup.New", p, fmt.Errorf("signature file parameters disagree with earlier files"))
			}
		}
		r.Close()

		d.files = append(d.files, SourceFile{Path: p, NumItems: n, StartIndex: offset})
		offset += n
	}
	d.numItems = offset

	bytesPerBucket := int(d.bytesPerHash) * int(d.numHashValues)
	d.arena = newArena(int(d.numItems), bytesPerBucket)

	d.handles = make([]manifest.ItemID, d.numItems)
	for i := range d.handles {
		d.handles[i] = manifest.ItemID(i)
	}

	d.flags = flagstore.New(int(d.numItems))

	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// LoadFlags replaces the all-active flag array with one loaded from an
// existing flag file, so a later run can resume where a previous one left
// off (unless the ignore-flag option cold-starts the run instead).
func (d *Deduplicator) LoadFlags(path string) error {
	f, err := flagstore.Load(path, int(d.numItems))
	if err != nil {
		return err
	}
	d.flags = f

	return nil
}

// Files reports the opened source files in manifest order, with their item
// counts and start offsets resolved from the signature headers.
func (d *Deduplicator) Files() []SourceFile { return d.files }

// Begin and End report the half-open band range every signature file
// covers.
func (d *Deduplicator) Begin() uint32 { return d.begin }
func (d *Deduplicator) End() uint32   { return d.end }

// BytesPerBucket is bytesPerHash*numHashValues.
func (d *Deduplicator) BytesPerBucket() int { return d.arena.bytesPerBucket }

// Flags exposes the accumulated flag array, e.g. for Save after Run.
func (d *Deduplicator) Flags() flagstore.Flags { return d.flags }

// readBucket fans the read of bucket column bucketNumber in across every
// signature file concurrently; each goroutine writes a disjoint slice of
// the arena, so no locking is needed.
func (d *Deduplicator) readBucket(bucketNumber uint32) error {
	var g errgroup.Group

	for _, sf := range d.files {
		sf := sf
		g.Go(func() error {
			r, err := signature.Open(sf.Path)
			if err != nil {
				return err
			}
			defer r.Close()

			dst := d.arena.bytes[int(sf.StartIndex)*d.arena.bytesPerBucket : int(sf.StartIndex+sf.NumItems)*d.arena.bytesPerBucket]
			_, err = r.ReadBucket(bucketNumber, dst)

			return err
		})
	}

	return g.Wait()
}

// DeduplicateBucket runs one full bucket pass: read, sort, scan, optional
// index write, and flag promotion. basename and group are used only when
// writeIndex is true, to name and tag the emitted index file.
func (d *Deduplicator) DeduplicateBucket(basename string, group manifest.GroupID, bucketNumber uint32, writeIndex bool) (Stats, error) {
	if bucketNumber < d.begin || bucketNumber >= d.end {
		return Stats{}, errs.New(errs.OutOfRange, "dedup.DeduplicateBucket", basename, nil)
	}

	if err := d.readBucket(bucketNumber); err != nil {
		return Stats{}, err
	}

	if err := d.arena.parallelSort(d.handles); err != nil {
		return Stats{}, err
	}

	stats := Stats{BucketNumber: bucketNumber, NumActiveBefore: d.flags.CountActive()}

	for cur := 0; cur < len(d.handles); {
		next := cur + 1
		for next < len(d.handles) && d.arena.equal(d.handles[cur], d.handles[next]) {
			next++
		}
		for k := cur + 1; k < next; k++ {
			d.flags.MarkPass(int(d.handles[k]))
		}
		cur = next
	}

	if writeIndex {
		if err := d.writeIndex(basename, group, bucketNumber); err != nil {
			return Stats{}, err
		}
	}

	d.flags.PromotePass()

	// An item dead since an earlier pass may land in a run again; counting
	// active flags around the promotion charges each item to exactly one
	// pass.
	stats.NumActiveAfter = d.flags.CountActive()
	stats.NumDetected = stats.NumActiveBefore - stats.NumActiveAfter

	return stats, nil
}

func (d *Deduplicator) writeIndex(basename string, group manifest.GroupID, bucketNumber uint32) error {
	path := index.FileName(basename, bucketNumber)
	bytesPerBucket := d.arena.bytesPerBucket

	w, err := index.NewWriter(path, bucketNumber, uint32(bytesPerBucket))
	if err != nil {
		return err
	}

	// One pooled record buffer is reused for every surviving record of
	// every bucket pass: the bucket bytes are copied in from the arena and
	// the trailer re-encoded in place before each WriteRaw.
	rec, cleanup := pool.GetByteSlice(bytesPerBucket + 8)
	defer cleanup()

	numActive := uint64(0)
	for _, h := range d.handles {
		if d.flags[h] == flagstore.Pending {
			continue
		}

		copy(rec, d.arena.slot(h))
		if err := index.PutTrailer(rec[bytesPerBucket:], group, h); err != nil {
			w.Close()
			return err
		}

		if err := w.WriteRaw(rec); err != nil {
			w.Close()
			return err
		}
		numActive++
	}
	w.SetCounts(d.numItems, numActive)

	return w.Close()
}

// Run executes DeduplicateBucket for every bucket in [Begin, End).
func (d *Deduplicator) Run(basename string, group manifest.GroupID, writeIndex bool) ([]Stats, error) {
	stats := make([]Stats, 0, d.end-d.begin)
	for b := d.begin; b < d.end; b++ {
		s, err := d.DeduplicateBucket(basename, group, b, writeIndex)
		if err != nil {
			return stats, err
		}
		stats = append(stats, s)
	}

	return stats, nil
}
