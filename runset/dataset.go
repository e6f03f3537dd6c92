// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runset

import (
	"cmp"
	"fmt"
	"sort"

	"github.com/Sasso0101/thesis/runmath"
	"github.com/pkg/errors"
)

// A Dataset is an ordered collection of Records.
//
// Records with equal RunKeys are all kept. Consumers that need one
// value per configuration combine them with AverageBy.
//
// A Dataset is not safe for concurrent mutation, but once built it
// may be read from multiple goroutines.
type Dataset struct {
	recs []Record
}

// NewDataset returns a Dataset holding recs, which must each satisfy
// the record invariant. It returns the first violation found.
func NewDataset(recs []Record) (*Dataset, error) {
	d := &Dataset{recs: make([]Record, 0, len(recs))}
	for _, rec := range recs {
		if err := d.Add(rec); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add appends rec to d. It returns an error and leaves d unchanged if
// rec has no CPUs, a negative chunk size, or a summary that is
// undefined or out of range.
func (d *Dataset) Add(rec Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	d.recs = append(d.recs, rec)
	return nil
}

func checkRecord(rec Record) error {
	k := rec.Key
	if k.NumCPUs < 1 {
		return errors.Errorf("%s: num_cpus must be at least 1", k)
	}
	if k.ChunkSize < 0 {
		return errors.Errorf("%s: negative chunk size", k)
	}
	if err := rec.Summary.Check(); err != nil {
		return errors.Wrap(err, k.String())
	}
	return nil
}

// Len returns the number of records in d.
func (d *Dataset) Len() int {
	return len(d.recs)
}

// Records returns a copy of the records in d, in insertion order.
func (d *Dataset) Records() []Record {
	return append([]Record(nil), d.recs...)
}

// Concat returns a new Dataset holding the records of each dataset in
// order.
func Concat(ds ...*Dataset) *Dataset {
	n := 0
	for _, d := range ds {
		n += d.Len()
	}
	out := &Dataset{recs: make([]Record, 0, n)}
	for _, d := range ds {
		out.recs = append(out.recs, d.recs...)
	}
	return out
}

// Filter returns a new Dataset holding the records of d whose keys
// satisfy pred, in the same order. d is not modified.
func (d *Dataset) Filter(pred func(RunKey) bool) *Dataset {
	out := &Dataset{}
	for _, rec := range d.recs {
		if pred(rec.Key) {
			out.recs = append(out.recs, rec)
		}
	}
	return out
}

// Unreplicated returns a Dataset in which each run that was fanned
// out across chunk sizes appears once, with chunk size 0. Records
// that were not replicated are kept as they are.
//
// Datasets read from CSV carry no replication marks; use
// MarkReplicated first to recover them.
func (d *Dataset) Unreplicated() *Dataset {
	type run struct {
		key     RunKey
		origin  string
		cluster string
	}
	seen := make(map[run]bool)
	out := &Dataset{}
	for _, rec := range d.recs {
		if !rec.Replicated {
			out.recs = append(out.recs, rec)
			continue
		}
		rec.Key.ChunkSize = 0
		rec.Replicated = false
		r := run{rec.Key, rec.Origin, rec.Cluster}
		if seen[r] {
			continue
		}
		seen[r] = true
		out.recs = append(out.recs, rec)
	}
	return out
}

// MarkReplicated returns a copy of d in which fan-outs of the runtime
// implementation impl across chunkSizes are marked Replicated again.
//
// A fan-out is a run of consecutive unmarked records of impl, one per
// entry of chunkSizes in that order, that agree on every other key
// field, on cluster and on summary. This is how Build emits them and
// how WriteCSV preserves them. All records of a recovered fan-out
// take the origin of its first record.
func (d *Dataset) MarkReplicated(impl string, chunkSizes []int) *Dataset {
	out := &Dataset{recs: append([]Record(nil), d.recs...)}
	n := len(chunkSizes)
	if n < 2 {
		return out
	}
	for i := 0; i+n <= len(out.recs); {
		if !isFanOut(out.recs[i:i+n], impl, chunkSizes) {
			i++
			continue
		}
		for j := i; j < i+n; j++ {
			out.recs[j].Replicated = true
			out.recs[j].Origin = out.recs[i].Origin
		}
		i += n
	}
	return out
}

func isFanOut(recs []Record, impl string, chunkSizes []int) bool {
	first := recs[0]
	for i, rec := range recs {
		if rec.Replicated || rec.Key.Implementation != impl || rec.Key.ChunkSize != chunkSizes[i] {
			return false
		}
		k := rec.Key
		k.ChunkSize = first.Key.ChunkSize
		if k != first.Key || rec.Cluster != first.Cluster || rec.Summary != first.Summary {
			return false
		}
	}
	return true
}

// A Field names one component of a RunKey.
type Field int

const (
	FieldBoard Field = iota
	FieldImplementation
	FieldDataset
	FieldNumCPUs
	FieldChunkSize
)

// Fields lists every Field in canonical column order.
var Fields = []Field{FieldBoard, FieldImplementation, FieldDataset, FieldNumCPUs, FieldChunkSize}

// String returns the canonical CSV column name of f.
func (f Field) String() string {
	switch f {
	case FieldBoard:
		return "board"
	case FieldImplementation:
		return "implementation"
	case FieldDataset:
		return "dataset"
	case FieldNumCPUs:
		return "num_cpus"
	case FieldChunkSize:
		return "chunksize"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// project copies field f from src into dst.
func (f Field) project(dst *RunKey, src RunKey) {
	switch f {
	case FieldBoard:
		dst.Board = src.Board
	case FieldImplementation:
		dst.Implementation = src.Implementation
	case FieldDataset:
		dst.Dataset = src.Dataset
	case FieldNumCPUs:
		dst.NumCPUs = src.NumCPUs
	case FieldChunkSize:
		dst.ChunkSize = src.ChunkSize
	default:
		panic("runset: unknown field " + f.String())
	}
}

// compare orders a and b by field f. Strings compare lexically and
// integers numerically.
func (f Field) compare(a, b RunKey) int {
	switch f {
	case FieldBoard:
		return cmp.Compare(a.Board, b.Board)
	case FieldImplementation:
		return cmp.Compare(a.Implementation, b.Implementation)
	case FieldDataset:
		return cmp.Compare(a.Dataset, b.Dataset)
	case FieldNumCPUs:
		return cmp.Compare(a.NumCPUs, b.NumCPUs)
	case FieldChunkSize:
		return cmp.Compare(a.ChunkSize, b.ChunkSize)
	}
	panic("runset: unknown field " + f.String())
}

// Project returns the RunKey holding only the given fields of k. The
// other fields are zero.
func Project(k RunKey, fields ...Field) RunKey {
	var out RunKey
	for _, f := range fields {
		f.project(&out, k)
	}
	return out
}

// A Group is the set of records sharing the values of some Fields.
type Group struct {
	// Key holds the grouped fields. The other fields are zero.
	Key RunKey

	// Records are the members of the group, in dataset order.
	Records []Record
}

// GroupBy partitions d by the given fields. Groups are returned
// sorted by their keys, comparing fields in the order given.
func (d *Dataset) GroupBy(fields ...Field) []Group {
	index := make(map[RunKey]int)
	var groups []Group
	for _, rec := range d.recs {
		k := Project(rec.Key, fields...)
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, Group{Key: k})
		}
		groups[gi].Records = append(groups[gi].Records, rec)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		for _, f := range fields {
			if c := f.compare(groups[i].Key, groups[j].Key); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return groups
}

// A Value selects one summary statistic of a Record.
type Value int

const (
	ValueRuntime Value = iota
	ValueStdDev
	ValueMin
	ValueMax
)

// String returns the canonical CSV column name of v.
func (v Value) String() string {
	switch v {
	case ValueRuntime:
		return "runtime"
	case ValueStdDev:
		return "std_runtime"
	case ValueMin:
		return "min_runtime"
	case ValueMax:
		return "max_runtime"
	}
	return fmt.Sprintf("Value(%d)", int(v))
}

// Of returns the value v of sum.
func (v Value) Of(sum runmath.Summary) float64 {
	switch v {
	case ValueRuntime:
		return sum.GeoMean
	case ValueStdDev:
		return sum.StdDev
	case ValueMin:
		return sum.Min
	case ValueMax:
		return sum.Max
	}
	panic("runset: unknown value " + v.String())
}

// An Average is the arithmetic mean of one Value over a Group.
type Average struct {
	Key  RunKey
	Mean float64

	// N is the number of records averaged.
	N int
}

// AverageBy groups d by fields and returns the arithmetic mean of v
// over each group, in GroupBy order.
func (d *Dataset) AverageBy(fields []Field, v Value) []Average {
	groups := d.GroupBy(fields...)
	out := make([]Average, 0, len(groups))
	for _, g := range groups {
		xs := make([]float64, len(g.Records))
		for i, rec := range g.Records {
			xs[i] = v.Of(rec.Summary)
		}
		// Groups are never empty.
		mean, _ := runmath.Mean(xs)
		out = append(out, Average{Key: g.Key, Mean: mean, N: len(xs)})
	}
	return out
}

// Boards returns the distinct boards in d, sorted.
func (d *Dataset) Boards() []string {
	return d.distinctStrings(func(k RunKey) string { return k.Board })
}

// Implementations returns the distinct implementations in d, sorted.
func (d *Dataset) Implementations() []string {
	return d.distinctStrings(func(k RunKey) string { return k.Implementation })
}

// Datasets returns the distinct dataset names in d, sorted.
func (d *Dataset) Datasets() []string {
	return d.distinctStrings(func(k RunKey) string { return k.Dataset })
}

// ChunkSizes returns the distinct chunk sizes in d, sorted.
func (d *Dataset) ChunkSizes() []int {
	return d.distinctInts(func(k RunKey) int { return k.ChunkSize })
}

// CPUCounts returns the distinct CPU counts in d, sorted.
func (d *Dataset) CPUCounts() []int {
	return d.distinctInts(func(k RunKey) int { return k.NumCPUs })
}

func (d *Dataset) distinctStrings(f func(RunKey) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range d.recs {
		if s := f(rec.Key); !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func (d *Dataset) distinctInts(f func(RunKey) int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, rec := range d.recs {
		if n := f(rec.Key); !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}
