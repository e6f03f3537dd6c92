// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runset

import "github.com/aclements/go-gg/table"

// A Row is one record flattened into columns.
//
// The exported field names are the column names of GGTable.
type Row struct {
	Board          string
	Implementation string
	Dataset        string
	NumCPUs        int
	ChunkSize      int
	Runtime        float64
	StdRuntime     float64
	MinRuntime     float64
	MaxRuntime     float64
	Cluster        string
}

// Column names of GGTable.
const (
	ColBoard          = "Board"
	ColImplementation = "Implementation"
	ColDataset        = "Dataset"
	ColNumCPUs        = "NumCPUs"
	ColChunkSize      = "ChunkSize"
	ColRuntime        = "Runtime"
)

func rowOf(rec Record) Row {
	return Row{
		Board:          rec.Key.Board,
		Implementation: rec.Key.Implementation,
		Dataset:        rec.Key.Dataset,
		NumCPUs:        rec.Key.NumCPUs,
		ChunkSize:      rec.Key.ChunkSize,
		Runtime:        rec.Summary.GeoMean,
		StdRuntime:     rec.Summary.StdDev,
		MinRuntime:     rec.Summary.Min,
		MaxRuntime:     rec.Summary.Max,
		Cluster:        rec.Cluster,
	}
}

// Table returns the records of d as flat rows, in dataset order.
func (d *Dataset) Table() []Row {
	rows := make([]Row, len(d.recs))
	for i, rec := range d.recs {
		rows[i] = rowOf(rec)
	}
	return rows
}

// GGTable returns the rows of d as a go-gg table with one column per
// Row field.
func (d *Dataset) GGTable() *table.Table {
	return table.TableFromStructs(d.Table())
}
