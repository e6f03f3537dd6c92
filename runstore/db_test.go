// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sasso0101/thesis/runmath"
	"github.com/Sasso0101/thesis/runset"
	. "github.com/Sasso0101/thesis/runstore"
	"github.com/Sasso0101/thesis/runstore/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUploadID(t *testing.T) {
	for _, test := range []struct {
		id  string
		day string
		seq int64
		ok  bool
	}{
		{"19700101.1", "19700101", 1, true},
		{"20241231.42", "20241231", 42, true},
		{"20241231", "", 0, false},
		{"2024123.1", "", 0, false},
		{"20241341.1", "", 0, false},
		{"20241231.0", "", 0, false},
		{"20241231.x", "", 0, false},
	} {
		day, seq, ok := ParseUploadID(test.id)
		assert.Equal(t, test.ok, ok, test.id)
		assert.Equal(t, test.day, day, test.id)
		assert.Equal(t, test.seq, seq, test.id)
	}
}

// TestUploadIDs verifies that NewUpload generates the correct sequence of upload IDs.
func TestUploadIDs(t *testing.T) {
	ctx := context.Background()

	db := dbtest.NewDB(t)

	defer SetNow(time.Time{})

	tests := []struct {
		sec int64
		id  string
	}{
		{0, "19700101.1"},
		{0, "19700101.2"},
		{86400, "19700102.1"},
		{86400, "19700102.2"},
		{86400, "19700102.3"},
		{86400, "19700102.4"},
		{86400, "19700102.5"},
		{86400, "19700102.6"},
		{86400, "19700102.7"},
		{86400, "19700102.8"},
		{86400, "19700102.9"},
		{86400, "19700102.10"},
		{86400, "19700102.11"},
	}
	for _, test := range tests {
		SetNow(time.Unix(test.sec, 0))
		u, err := db.NewUpload(ctx)
		require.NoError(t, err)
		require.NoError(t, u.Commit())
		assert.Equal(t, test.id, u.ID)
	}
	n, err := db.CountUploads()
	require.NoError(t, err)
	assert.Equal(t, len(tests), n)
}

func testRecords() []runset.Record {
	return []runset.Record{
		{
			Key:     runset.RunKey{Board: "Board X", Implementation: "mutex", Dataset: "road", NumCPUs: 4, ChunkSize: 64},
			Summary: runmath.Summarize([]float64{1.30, 1.20, 1.10}),
			Origin:  "job-1",
		},
		{
			Key:        runset.RunKey{Board: "Board X", Implementation: "openmp", Dataset: "road", NumCPUs: 4, ChunkSize: 16},
			Summary:    runmath.Summarize([]float64{2}),
			Origin:     "job-2",
			Replicated: true,
			Cluster:    "c1",
		},
	}
}

func TestInsertQuery(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)

	want := testRecords()
	u, err := db.NewUpload(ctx)
	require.NoError(t, err)
	for _, rec := range want {
		require.NoError(t, u.Insert(rec))
	}
	require.NoError(t, u.Commit())
	assert.Error(t, u.Insert(want[0]))
	assert.Error(t, u.Commit())

	ds, err := db.Query(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, want, ds.Records())

	uploads, err := db.Uploads(ctx)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, u.ID, uploads[0].ID)
	assert.Equal(t, 2, uploads[0].Records)
}

func TestInsertDataset(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)

	ds := dbtest.Dataset(t)
	require.Equal(t, 3, ds.Len())
	id := dbtest.Seed(t, db, ds)

	got, err := db.Query(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ds.Records(), got.Records())
	// Replication survives the round trip, so the fan-out can still
	// be reversed.
	assert.Equal(t, 2, got.Unreplicated().Len())
}

func TestAbort(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)

	u, err := db.NewUpload(ctx)
	require.NoError(t, err)
	require.NoError(t, u.Insert(testRecords()[0]))
	require.NoError(t, u.Abort())

	n, err := db.CountUploads()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = db.Query(ctx, u.ID)
	assert.True(t, errors.Is(err, ErrNoUpload), "Query(%q) = %v, want ErrNoUpload", u.ID, err)

	_, err = db.Query(ctx, "bogus")
	assert.Error(t, err)
}
