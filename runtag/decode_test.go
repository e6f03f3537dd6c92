// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTag(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		tag  string
		want Tag
	}{
		{"atomicchunksize_64", DirectTag{"atomic", 64}},
		{"mutexchunksize_64", DirectTag{"mutex", 64}},
		{"atomic_chunksize_16", DirectTag{"atomic", 16}},
		{"lock-free-chunksize_4096", DirectTag{"lock-free", 4096}},
		{"pthreads_chunksize_32_rerun", DirectTag{"pthreads", 32}},
		{"openmp", RuntimeTag{"openmp"}},
		{"openmp_large_diameter", RuntimeTag{"openmp"}},
	}
	for _, test := range tests {
		got, err := ParseTag(test.tag, cfg)
		if assert.NoError(t, err, test.tag) {
			assert.Equal(t, test.want, got, test.tag)
		}
	}

	for _, tag := range []string{"", "compile", "chunksize_64", "atomic_chunksize_", "atomic", "openmpchunksize_64", "openmp_chunksize_16"} {
		_, err := ParseTag(tag, cfg)
		var de *DecodeError
		assert.True(t, errors.As(err, &de), "ParseTag(%q) = %v, want DecodeError", tag, err)
	}

	// Without a runtime prefix no tag is taken for the runtime variant.
	_, err := ParseTag("mutexchunksize_64", &Config{})
	var de *DecodeError
	assert.True(t, errors.As(err, &de), "got %v", err)
}

func TestNewDecoder(t *testing.T) {
	for _, cfg := range []*Config{
		{},
		{RuntimePrefix: "openmp"},
		{ChunkSizes: []int{16}},
		{RuntimePrefix: "openmp", ChunkSizes: []int{16, 0}},
	} {
		_, err := NewDecoder(cfg)
		assert.Error(t, err, "%+v", cfg)
	}

	cfg := &Config{RuntimePrefix: "omp", ChunkSizes: []int{64, 16}}
	d, err := NewDecoder(cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 64}, d.Config().ChunkSizes)
	// The caller's config is left alone.
	assert.Equal(t, []int{64, 16}, cfg.ChunkSizes)

	dec, err := d.DecodeJob(JobInput{"omp", "boardX_2cpus", "./bfs_omp road.mtx"})
	require.NoError(t, err)
	assert.Equal(t, []int{16, 64}, dec.ChunkSizes)
	_, err = d.DecodeJob(JobInput{"ompchunksize_64", "boardX_2cpus", "./bfs_omp road.mtx"})
	var de *DecodeError
	assert.True(t, errors.As(err, &de), "got %v", err)
}

func TestParseConfigName(t *testing.T) {
	tests := []struct {
		name  string
		board string
		cpus  int
	}{
		{"boardX_4cpus", "boardX", 4},
		{"boardX4_cpus", "boardX", 4},
		{"jetson_orin_12cpus", "jetson_orin", 12},
		{"amd_epyc_64cpus_long", "amd_epyc", 64},
		{"rpi5_4_cpus", "rpi5", 4},
	}
	for _, test := range tests {
		board, cpus, err := ParseConfigName(test.name)
		if assert.NoError(t, err, test.name) {
			assert.Equal(t, test.board, board, test.name)
			assert.Equal(t, test.cpus, cpus, test.name)
		}
	}
	for _, name := range []string{"", "boardX", "boardX_cpus", "boardX_0cpus", "_4_cpus"} {
		_, _, err := ParseConfigName(name)
		var de *DecodeError
		assert.True(t, errors.As(err, &de), "ParseConfigName(%q) = %v, want DecodeError", name, err)
	}
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand(`./bfs -f "datasets/large diameter/road.mtx" -n 10 --verbose -s=3 -t -1 extra`)
	require.NoError(t, err)
	assert.Equal(t, "./bfs", cmd.Binary)
	assert.Equal(t, map[string]string{
		"f":       "datasets/large diameter/road.mtx",
		"n":       "10",
		"verbose": "",
		"s":       "3",
		"t":       "-1",
	}, cmd.Args)
	assert.Equal(t, []string{"extra"}, cmd.Positional)

	_, err = ParseCommand("")
	assert.Error(t, err)
	_, err = ParseCommand(`./bfs "unterminated`)
	assert.Error(t, err)
}

func TestStem(t *testing.T) {
	for in, want := range map[string]string{
		"datasets/GAP/GAP-road.bmtx": "GAP-road",
		"europe_osm.mtx":             "europe_osm",
		"graph.tar.gz":               "graph.tar",
		`C:\data\kron.mtx`:           "kron",
		"noext":                      "noext",
		"":                           "",
	} {
		assert.Equal(t, want, Stem(in), in)
	}
}

func TestParseFileName(t *testing.T) {
	fn, err := ParseFileName("logs/amd/pthreads europe_osm.mtx 16cpus chunk64.log")
	require.NoError(t, err)
	assert.Equal(t, FileName{"pthreads", "europe_osm", 16, 64}, fn)

	fn, err = ParseFileName("openmp kron_g500-logn21.mtx 8cpus.log")
	require.NoError(t, err)
	assert.Equal(t, FileName{"openmp", "kron_g500-logn21", 8, 0}, fn)

	for _, name := range []string{
		"pthreads europe_osm.mtx 16cpus chunk64.txt",
		"pthreads europe_osm.mtx.log",
		"pthreads europe_osm.mtx sixteen.log",
		"pthreads europe_osm.mtx 16cpus chunky.log",
	} {
		_, err := ParseFileName(name)
		var de *DecodeError
		assert.True(t, errors.As(err, &de), "ParseFileName(%q) = %v", name, err)
	}
}

func TestDecodeJob(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Boards = map[string]string{"boardX": "Board X", "milan1": "AMD Milan", "milan2": "AMD Milan"}
	cfg.Implementations = map[string]string{"mutex": "lock-based"}
	d, err := NewDecoder(cfg)
	require.NoError(t, err)

	dec, err := d.DecodeJob(JobInput{
		Tag:        "mutexchunksize_64",
		ConfigName: "boardX_4cpus",
		Command:    "./bfs_mutex -f datasets/road.mtx -n 10",
	})
	require.NoError(t, err)
	assert.Equal(t, Decoded{
		Board:          "Board X",
		Implementation: "lock-based",
		Kind:           Direct,
		Dataset:        "road",
		NumCPUs:        4,
		ChunkSizes:     []int{64},
	}, dec)

	// Two machines of the same model coalesce into one board.
	a, err := d.DecodeJob(JobInput{"openmp", "milan1_32cpus", "./bfs_omp datasets/kron.mtx"})
	require.NoError(t, err)
	b, err := d.DecodeJob(JobInput{"openmp", "milan2_32cpus", "./bfs_omp datasets/kron.mtx"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, Runtime, a.Kind)
	assert.Equal(t, "openmp", a.Implementation)
	assert.Equal(t, "kron", a.Dataset)
	assert.Equal(t, DefaultChunkSizes, a.ChunkSizes)

	// The returned set is a copy.
	a.ChunkSizes[0] = -1
	assert.Equal(t, 16, d.Config().ChunkSizes[0])
}

func TestDecodeJobMissingArgument(t *testing.T) {
	d, err := NewDecoder(nil)
	require.NoError(t, err)
	var ma *MissingArgumentError

	_, err = d.DecodeJob(JobInput{"atomicchunksize_64", "boardX_4cpus", "./bfs_atomic -n 10"})
	require.True(t, errors.As(err, &ma), "got %v", err)
	assert.Equal(t, "-f", ma.Arg)

	_, err = d.DecodeJob(JobInput{"openmp", "boardX_4cpus", "./bfs_omp -t 4"})
	require.True(t, errors.As(err, &ma), "got %v", err)
	assert.Equal(t, "#1", ma.Arg)
}

func TestDecodeFile(t *testing.T) {
	d, err := NewDecoder(&Config{RuntimePrefix: "openmp", ChunkSizes: []int{16, 32, 64}, Boards: map[string]string{"amd": "AMD EPYC"}})
	require.NoError(t, err)

	dec, err := d.DecodeFile("amd", "pthreads europe_osm.mtx 16cpus chunk64.log")
	require.NoError(t, err)
	assert.Equal(t, Decoded{"AMD EPYC", "pthreads", Direct, "europe_osm", 16, []int{64}}, dec)

	dec, err = d.DecodeFile("amd", "openmp europe_osm.mtx 16cpus.log")
	require.NoError(t, err)
	assert.Equal(t, Runtime, dec.Kind)
	assert.Equal(t, []int{16, 32, 64}, dec.ChunkSizes)

	dec, err = d.DecodeFile("amd", "serial europe_osm.mtx 1cpus.log")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, dec.ChunkSizes)

	_, err = d.DecodeFile("amd", "openmp europe_osm.mtx 16cpus chunk64.log")
	var de *DecodeError
	assert.True(t, errors.As(err, &de))

	_, err = d.DecodeFile("", "serial europe_osm.mtx 1cpus.log")
	assert.True(t, errors.As(err, &de))
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
runtime_prefix: omp
chunk_sizes: [64, 16]
boards:
  milan1: AMD Milan
  milan2: AMD Milan
`))
	require.NoError(t, err)
	assert.Equal(t, "omp", cfg.RuntimePrefix)
	assert.Equal(t, "openmp", cfg.RuntimeImplementation)
	assert.Equal(t, []int{16, 64}, cfg.ChunkSizes)
	assert.Equal(t, "AMD Milan", cfg.Board("milan2"))
	assert.Equal(t, "other", cfg.Board("other"))

	for _, bad := range []string{
		"chunk_sizes: []",
		"chunk_sizes: [16, 16]",
		"chunk_sizes: [0]",
		`runtime_prefix: ""`,
		"boards: [",
	} {
		_, err := ParseConfig([]byte(bad))
		assert.Error(t, err, bad)
	}
}
