// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest provides run databases and a shared fixture dataset
// for tests.
package dbtest

import (
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sasso0101/thesis/runmath"
	"github.com/Sasso0101/thesis/runset"
	"github.com/Sasso0101/thesis/runstore"
	_ "github.com/Sasso0101/thesis/runstore/sqlite3"
	"github.com/Sasso0101/thesis/runtag"
	_ "github.com/go-sql-driver/mysql"
)

var testDB = flag.String("testdb", "", "run store tests against the empty database `driver:dsn` instead of a fresh SQLite file")

// Open opens a database for the test and returns it together with its
// DRIVER:DSN target, which other connections (such as a command under
// test) can use to reach the same data. By default the database is a
// new SQLite file in the test's temporary directory. The database is
// closed when the test finishes.
func Open(t *testing.T) (db *runstore.DB, target string) {
	t.Helper()
	target = *testDB
	if target == "" {
		target = "sqlite3:" + filepath.Join(t.TempDir(), "runs.db")
	}
	driver, dsn, ok := strings.Cut(target, ":")
	if !ok {
		t.Fatalf("-testdb %q: want DRIVER:DSN", target)
	}
	db, err := runstore.OpenSQL(driver, dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Make sure the database really is empty.
	uploads, err := db.CountUploads()
	if err != nil {
		t.Fatal(err)
	}
	if uploads != 0 {
		t.Fatalf("found %d row(s) in Uploads, want 0", uploads)
	}
	return db, target
}

// NewDB is like Open but returns only the database.
func NewDB(t *testing.T) *runstore.DB {
	t.Helper()
	db, _ := Open(t)
	return db
}

// Seed stores ds as one committed upload and returns the upload's ID.
func Seed(t *testing.T, db *runstore.DB, ds *runset.Dataset) string {
	t.Helper()
	u, err := db.NewUpload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := u.InsertDataset(ds); err != nil {
		u.Abort()
		t.Fatal(err)
	}
	if err := u.Commit(); err != nil {
		t.Fatal(err)
	}
	return u.ID
}

// Dataset returns a small dataset built the way ingestion builds one:
// a lock-based run on boardX with 4 CPUs and chunk size 64, and a
// runtime-variant run on boardX with 8 CPUs fanned out over chunk
// sizes 16 and 64.
func Dataset(t *testing.T) *runset.Dataset {
	t.Helper()
	cfg := runtag.DefaultConfig()
	cfg.ChunkSizes = []int{16, 64}
	d, err := runtag.NewDecoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	runs := []struct {
		origin string
		in     runtag.JobInput
		times  []float64
	}{
		{"job-1", runtag.JobInput{Tag: "mutexchunksize_64", ConfigName: "boardX_4cpus", Command: "./bfs_mutex -f datasets/road.mtx"}, []float64{1.30, 1.20, 1.10}},
		{"job-2", runtag.JobInput{Tag: "openmp", ConfigName: "boardX_8cpus", Command: "./bfs_omp datasets/road.mtx"}, []float64{0.5, 0.6}},
	}
	ds := &runset.Dataset{}
	for _, run := range runs {
		dec, err := d.DecodeJob(run.in)
		if err != nil {
			t.Fatal(err)
		}
		for _, rec := range runset.Build(dec, runmath.Summarize(run.times), run.origin) {
			if err := ds.Add(rec); err != nil {
				t.Fatal(err)
			}
		}
	}
	return ds
}
