// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sasso0101/thesis/internal/jobs"
	"github.com/Sasso0101/thesis/runstore"
	"github.com/Sasso0101/thesis/runstore/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timing = "run_id=0,9\nrun_id=1,9\nrun_id=2,1.30\nrun_id=3,1.20\nrun_id=4,1.10\n"

func writeJob(t *testing.T, root, id, tag, config, command, stdout string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	meta := fmt.Sprintf("id: %q\ntag: %q\nconfig_name: %q\nstatus: COMPLETED\ncommand: %q\n", id, tag, config, command)
	require.NoError(t, os.WriteFile(filepath.Join(dir, jobs.MetadataFile), []byte(meta), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, jobs.StdoutFile), []byte(stdout), 0o644))
}

func archive(t *testing.T) string {
	root := t.TempDir()
	writeJob(t, root, "1", "mutexchunksize_64", "boardX_4cpus", "./bfs_mutex -f datasets/road.mtx", timing)
	writeJob(t, root, "2", "openmp", "boardX_4cpus", "./bfs_omp datasets/road.mtx", timing)
	return root
}

func bfsstat(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	var out, log bytes.Buffer
	cmd := newCommand(&out, &log)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestJobsCSV(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "names.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("chunk_sizes: [16, 64]\nboards:\n  boardX: Board X\n"), 0o644))

	out, err := bfsstat(t, "--jobs", archive(t), "--config", cfg, "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "board,implementation,dataset,num_cpus,chunksize,runtime,std_runtime,min_runtime,max_runtime", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Board X,mutex,road,4,64,1.19"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Board X,openmp,road,4,16,"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "Board X,openmp,road,4,64,"), lines[3])
}

func TestCSVInputs(t *testing.T) {
	dir := t.TempDir()
	export := filepath.Join(dir, "export.csv")
	_, err := bfsstat(t, "--jobs", archive(t), "-o", export, "--format", "csv")
	require.NoError(t, err)

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	a := filepath.Join(dir, "c1_runs.csv")
	b := filepath.Join(dir, "c2_runs.csv")
	require.NoError(t, os.WriteFile(a, data, 0o644))
	require.NoError(t, os.WriteFile(b, data, 0o644))

	out, err := bfsstat(t, "--format", "text", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "boardX")
	assert.Contains(t, out, "mutex")
	assert.Contains(t, out, "1.1972")

	out, err = bfsstat(t, "--format", "html", a)
	require.NoError(t, err)
	assert.Contains(t, out, "<table class='bfsstat'>")
	assert.Contains(t, out, "<td>mutex")
}

func TestUnreplicatedCSV(t *testing.T) {
	dir := t.TempDir()
	export := filepath.Join(dir, "c1_runs.csv")
	_, err := bfsstat(t, "--jobs", archive(t), "-o", export, "--format", "csv")
	require.NoError(t, err)

	out, err := bfsstat(t, "--format", "csv", export)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 8)

	out, err = bfsstat(t, "--format", "csv", "--unreplicated", export)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "boardX,mutex,road,4,64,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "boardX,openmp,road,4,0,"), lines[2])
}

func TestBrokenJobMetadata(t *testing.T) {
	root := archive(t)
	bad := filepath.Join(root, "3")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, jobs.MetadataFile), []byte("id: [unterminated\n"), 0o644))

	out, err := bfsstat(t, "--jobs", root, "--format", "csv", "--strict")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 8)
}

func TestQueryUpload(t *testing.T) {
	db, target := dbtest.Open(t)
	id := dbtest.Seed(t, db, dbtest.Dataset(t))

	out, err := bfsstat(t, "--db", target, "--upload", id, "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "boardX,mutex,road,4,64,"), lines[1])

	// Reading an upload does not store it again.
	n, err := db.CountUploads()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = bfsstat(t, "--upload", id)
	assert.Error(t, err)
	_, err = bfsstat(t, "--db", target, "--upload", "20000101.9")
	assert.ErrorIs(t, err, runstore.ErrNoUpload)
}

func TestMalformedCSV(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "c1_runs.csv")
	require.NoError(t, os.WriteFile(bad, []byte("board,implementation,dataset,num_cpus,chunksize,runtime,std_runtime,min_runtime,max_runtime\nb,i,d,4,0,1,0,1,1\nb,i,d,zero,0,1,0,1,1\n"), 0o644))
	_, err := bfsstat(t, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV line 3")
}

func TestNoData(t *testing.T) {
	root := t.TempDir()
	writeJob(t, root, "1", "mutexchunksize_64", "boardX_4cpus", "./bfs -f road.mtx", "run_id=0,1\n")
	out, err := bfsstat(t, "--jobs", root)
	require.NoError(t, err)
	assert.Equal(t, noDataMessage+"\n", out)
}

func TestStrict(t *testing.T) {
	root := t.TempDir()
	writeJob(t, root, "1", "weird", "boardX_4cpus", "./bfs -f road.mtx", timing)

	out, err := bfsstat(t, "--jobs", root)
	require.NoError(t, err)
	assert.Equal(t, noDataMessage+"\n", out)

	_, err = bfsstat(t, "--jobs", root, "--strict")
	assert.Error(t, err)
}

func TestBadFlags(t *testing.T) {
	_, err := bfsstat(t, "--jobs", archive(t), "--format", "xml")
	assert.Error(t, err)
	_, err = bfsstat(t, "--jobs", archive(t), "--log-level", "chatty")
	assert.Error(t, err)
	_, err = bfsstat(t, "--jobs", archive(t), "--db", "nodriver")
	assert.Error(t, err)
	_, err = bfsstat(t, "--jobs", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestStoreAndCharts(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "runs.db")
	pngDir := filepath.Join(dir, "png")
	_, err := bfsstat(t, "--jobs", archive(t), "--db", "sqlite3:"+dbFile, "--png", pngDir)
	require.NoError(t, err)

	db, err := runstore.OpenSQL("sqlite3", dbFile)
	require.NoError(t, err)
	defer db.Close()
	uploads, err := db.Uploads(context.Background())
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, 7, uploads[0].Records)

	files, err := filepath.Glob(filepath.Join(pngDir, "*.png"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(pngDir, "boardX_road.png")}, files)
}

func TestClusterOf(t *testing.T) {
	for in, want := range map[string]string{
		"results/c1_runs.csv": "c1",
		"milan_2024_01.csv":   "milan",
		"plain.csv":           "plain",
	} {
		assert.Equal(t, want, clusterOf(in), in)
	}
}
