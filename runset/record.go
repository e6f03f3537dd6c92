// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runset assembles decoded run identities and run summaries
// into canonical records, and collects records into a Dataset that
// can be filtered, grouped, averaged and exported.
package runset

import (
	"fmt"

	"github.com/Sasso0101/thesis/runmath"
	"github.com/Sasso0101/thesis/runtag"
)

// A RunKey identifies one experimental configuration. Records with
// equal RunKeys are repeat runs of the same configuration.
type RunKey struct {
	Board          string
	Implementation string
	Dataset        string
	NumCPUs        int

	// ChunkSize is 0 when chunk size does not apply.
	ChunkSize int
}

func (k RunKey) String() string {
	return fmt.Sprintf("board:%s implementation:%s dataset:%s cpus:%d chunksize:%d",
		k.Board, k.Implementation, k.Dataset, k.NumCPUs, k.ChunkSize)
}

// A Record is one canonical run record.
type Record struct {
	Key     RunKey
	Summary runmath.Summary

	// Origin identifies the physical run the record was built from,
	// such as a job ID or a log path.
	Origin string

	// Replicated is set on the records a chunk-size agnostic run was
	// fanned out into. They are views of one run, not independent
	// experiments.
	Replicated bool

	// Cluster names the cluster export a record was loaded from, if
	// any.
	Cluster string
}

// Build combines a decoded run identity and the summary of its
// samples into records, one per chunk size in dec.ChunkSizes.
//
// An undefined summary yields no records: failed, timed out or
// too-short runs contribute nothing.
func Build(dec runtag.Decoded, sum runmath.Summary, origin string) []Record {
	if !sum.Defined() {
		return nil
	}
	recs := make([]Record, 0, len(dec.ChunkSizes))
	replicated := dec.Kind == runtag.Runtime && len(dec.ChunkSizes) > 1
	for _, cs := range dec.ChunkSizes {
		recs = append(recs, Record{
			Key: RunKey{
				Board:          dec.Board,
				Implementation: dec.Implementation,
				Dataset:        dec.Dataset,
				NumCPUs:        dec.NumCPUs,
				ChunkSize:      cs,
			},
			Summary:    sum,
			Origin:     origin,
			Replicated: replicated,
		})
	}
	return recs
}
