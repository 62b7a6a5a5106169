// Package merge implements the cross-group merger: for each LSH band it
// k-way merges every group's sorted index file into one unified index,
// discovering duplicates that span group boundaries (the within-group
// deduplicator only ever compares items inside a single group). Records
// that lose a cross-group collision are not deleted from their group's
// index; instead their item id is recorded in that group's delta file,
// which a later pass folds into the group's flag file.
package merge

import (
	"bytes"
	"container/heap"
	"fmt"
	"io"
	"os"
	"sort"

	"doubri/errs"
	"doubri/flagstore"
	"doubri/index"
	"doubri/manifest"
)

// Input names one group's index file family by its basename and group id.
type Input struct {
	Basename string
	Group    manifest.GroupID
}

// Stats summarizes one bucket's cross-group merge.
type Stats struct {
	BucketNumber  uint32
	NumTotalItems uint64
	NumSurvivors  uint64
	NumDuplicates uint64
}

// Merger holds the group inputs and output basename shared across every
// bucket in a merge run, plus the delta entries accumulated so far.
type Merger struct {
	inputs []Input
	output string
	deltas map[manifest.GroupID][]manifest.ItemID
}

// New returns a Merger over inputs, writing the unified index under
// output's FileName convention.
func New(inputs []Input, output string) *Merger {
	return &Merger{
		inputs: inputs,
		output: output,
		deltas: make(map[manifest.GroupID][]manifest.ItemID),
	}
}

// MergeBucket k-way merges bucketNumber's index file across every input
// group, writing the unified survivor stream to the output index and
// recording cross-group losers into the in-memory delta set.
func (m *Merger) MergeBucket(bucketNumber uint32) (Stats, error) {
	readers := make([]*index.Reader, len(m.inputs))
	for i, in := range m.inputs {
		r, err := index.Open(index.FileName(in.Basename, bucketNumber))
		if err != nil {
			closeAll(readers[:i])
			return Stats{}, err
		}
		readers[i] = r
	}
	defer closeAll(readers)

	var bytesPerBucket uint32
	var totalItems uint64
	for i, r := range readers {
		if i == 0 {
			bytesPerBucket = r.BytesPerBucket()
		} else if r.BytesPerBucket() != bytesPerBucket {
			return Stats{}, errs.New(errs.InconsistentSize, "merge.MergeBucket", m.inputs[i].Basename, fmt.Errorf("bytes_per_bucket disagrees across groups"))
		}
		if r.BucketNumber() != bucketNumber {
			return Stats{}, errs.New(errs.InconsistentSize, "merge.MergeBucket", m.inputs[i].Basename, fmt.Errorf("bucket_number mismatch in index file"))
		}
		totalItems += r.NumTotalItems()
	}

	w, err := index.NewWriter(index.FileName(m.output, bucketNumber), bucketNumber, bytesPerBucket)
	if err != nil {
		return Stats{}, err
	}

	h := &recordHeap{}
	heap.Init(h)
	for i, r := range readers {
		if err := fill(h, r, i); err != nil {
			w.Close()
			return Stats{}, err
		}
	}

	bpb := int(bytesPerBucket)
	var survivors, duplicates uint64
	for h.Len() > 0 {
		top := heap.Pop(h).(headItem)

		if err := w.WriteRaw(top.raw); err != nil {
			w.Close()
			return Stats{}, err
		}
		survivors++

		if err := fill(h, readers[top.reader], top.reader); err != nil {
			w.Close()
			return Stats{}, err
		}

		for h.Len() > 0 && bytes.Equal((*h)[0].raw[:bpb], top.raw[:bpb]) {
			dup := heap.Pop(h).(headItem)
			duplicates++
			g, it := index.DecodeTrailer(dup.raw[bpb:])
			m.deltas[g] = append(m.deltas[g], it)

			if err := fill(h, readers[dup.reader], dup.reader); err != nil {
				w.Close()
				return Stats{}, err
			}
		}
	}

	w.SetCounts(totalItems, survivors)
	if err := w.Close(); err != nil {
		return Stats{}, err
	}

	return Stats{
		BucketNumber:  bucketNumber,
		NumTotalItems: totalItems,
		NumSurvivors:  survivors,
		NumDuplicates: duplicates,
	}, nil
}

// fill reads the next raw record from readers[idx] and, unless it is
// exhausted, pushes it onto the heap as that reader's new head.
func fill(h *recordHeap, r *index.Reader, idx int) error {
	raw, err := r.ReadRaw()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}

	heap.Push(h, headItem{raw: raw, reader: idx})

	return nil
}

func closeAll(readers []*index.Reader) {
	for _, r := range readers {
		if r != nil {
			r.Close()
		}
	}
}

// Run calls MergeBucket for every bucket in [begin, end) and returns one
// Stats per bucket in order.
func (m *Merger) Run(begin, end uint32) ([]Stats, error) {
	stats := make([]Stats, 0, end-begin)
	for b := begin; b < end; b++ {
		s, err := m.MergeBucket(b)
		if err != nil {
			return stats, err
		}
		stats = append(stats, s)
	}

	return stats, nil
}

// WriteDeltas flushes the accumulated cross-group duplicates, one file per
// input group named "<output>.merge-dup.<gid>", each item id ascending and
// encoded as a 6-byte big-endian integer. A group with no cross-group
// losers still gets an empty delta file, so downstream flag updates never
// have to distinguish "no duplicates" from "merge not run".
func (m *Merger) WriteDeltas() error {
	written := make(map[manifest.GroupID]bool)

	for _, in := range m.inputs {
		if written[in.Group] {
			continue
		}
		written[in.Group] = true

		items := m.deltas[in.Group]
		sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

		if err := writeDeltaFile(DeltaFileName(m.output, in.Group), items); err != nil {
			return err
		}
	}

	for g, items := range m.deltas {
		if written[g] {
			continue
		}
		sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

		if err := writeDeltaFile(DeltaFileName(m.output, g), items); err != nil {
			return err
		}
	}

	return nil
}

// DeltaFileName returns the path a group's cross-group delta file is
// written to.
func DeltaFileName(output string, group manifest.GroupID) string {
	return fmt.Sprintf("%s.merge-dup.%d", output, group)
}

func writeDeltaFile(path string, items []manifest.ItemID) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errs.New(errs.IoOpen, "merge.WriteDeltas", path, err)
	}
	defer f.Close()

	buf := make([]byte, 6*len(items))
	for i, it := range items {
		v := uint64(it)
		off := i * 6
		buf[off+0] = byte(v >> 40)
		buf[off+1] = byte(v >> 32)
		buf[off+2] = byte(v >> 24)
		buf[off+3] = byte(v >> 16)
		buf[off+4] = byte(v >> 8)
		buf[off+5] = byte(v)
	}

	if _, err := f.Write(buf); err != nil {
		return errs.New(errs.IoWrite, "merge.WriteDeltas", path, err)
	}

	return nil
}

// ReadDelta loads a delta file's item ids.
func ReadDelta(path string) ([]manifest.ItemID, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.IoOpen, "merge.ReadDelta", path, err)
	}

	if len(b)%6 != 0 {
		return nil, errs.New(errs.BadHeader, "merge.ReadDelta", path, fmt.Errorf("delta file size %d is not a multiple of 6", len(b)))
	}

	items := make([]manifest.ItemID, len(b)/6)
	for i := range items {
		off := i * 6
		v := uint64(b[off+0])<<40 | uint64(b[off+1])<<32 | uint64(b[off+2])<<24 |
			uint64(b[off+3])<<16 | uint64(b[off+4])<<8 | uint64(b[off+5])
		items[i] = manifest.ItemID(v)
	}

	return items, nil
}

// ApplyDelta folds a group's cross-group delta file into its flag array,
// marking every listed item Pending and then promoting them all to Dead in
// one step: by the time a delta file is applied, every bucket has already
// been merged, so no later pass needs to tell the two states apart.
func ApplyDelta(flags flagstore.Flags, deltaPath string) error {
	items, err := ReadDelta(deltaPath)
	if err != nil {
		return err
	}

	for _, it := range items {
		flags.MarkPass(int(it))
	}
	flags.PromotePass()

	return nil
}
