// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runchart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Sasso0101/thesis/runmath"
	"github.com/Sasso0101/thesis/runset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(board, impl, dataset string, cpus, cs int, runtime float64) runset.Record {
	return runset.Record{
		Key:     runset.RunKey{Board: board, Implementation: impl, Dataset: dataset, NumCPUs: cpus, ChunkSize: cs},
		Summary: runmath.Summarize([]float64{runtime}),
	}
}

func testDataset(t *testing.T) *runset.Dataset {
	ds, err := runset.NewDataset([]runset.Record{
		rec("amd", "mutex", "road", 8, 64, 1),
		rec("amd", "mutex", "road", 2, 64, 4),
		rec("amd", "mutex", "road", 2, 64, 6),
		rec("amd", "atomic", "road", 2, 64, 3),
		rec("amd", "atomic", "road", 2, 16, 3.5),
		rec("amd", "mutex", "kron", 4, 64, 2),
		rec("arm", "mutex", "road", 4, 64, 7),
	})
	require.NoError(t, err)
	return ds
}

func TestAggregate(t *testing.T) {
	charts := Aggregate(testDataset(t))
	require.Len(t, charts, 3)
	assert.Equal(t, "amd", charts[0].Board)
	assert.Equal(t, "kron", charts[0].Dataset)
	assert.Equal(t, "road", charts[1].Dataset)
	assert.Equal(t, "arm", charts[2].Board)

	road := charts[1]
	require.Len(t, road.Panels, 2)
	assert.Equal(t, 16, road.Panels[0].ChunkSize)
	assert.Equal(t, 64, road.Panels[1].ChunkSize)

	p := road.Panels[1]
	require.Len(t, p.Series, 2)
	assert.Equal(t, Series{"atomic", []int{2}, []float64{3}}, p.Series[0])
	// Repeat runs are averaged and points are ordered by CPU count.
	assert.Equal(t, Series{"mutex", []int{2, 8}, []float64{5, 1}}, p.Series[1])

	assert.Nil(t, Aggregate(&runset.Dataset{}))
}

func TestFileName(t *testing.T) {
	c := &Chart{Board: "AMD EPYC 7/3", Dataset: "GAP-road"}
	assert.Equal(t, "AMD_EPYC_7-3_GAP-road.png", c.FileName())
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "png")
	files, err := Write(testDataset(t), dir, &Options{DPI: 50})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "amd_kron.png"), files[0])
	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.Equal(t, "\x89PNG", string(data[:4]), f)
	}
}
