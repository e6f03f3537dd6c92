// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtag

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// A FileName is a decoded log file name.
type FileName struct {
	Implementation string
	Dataset        string
	NumCPUs        int

	// ChunkSize is the chunk size, or 0 if the name has no chunk
	// field.
	ChunkSize int
}

var (
	fileCPUsRE  = regexp.MustCompile(`(\d+)cpus`)
	fileChunkRE = regexp.MustCompile(`chunk(\d+)`)
)

// ParseFileName decodes a log file name written by the benchmark
// scripts:
//
//	<implementation> <dataset>.<ext> <n>cpus[ chunk<c>].log
//
// Any leading directory is ignored.
func ParseFileName(name string) (FileName, error) {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	fail := func(msg string) (FileName, error) {
		return FileName{}, &DecodeError{Field: "file name", Input: base, Msg: msg}
	}
	if !strings.HasSuffix(base, ".log") {
		return fail("missing .log extension")
	}
	parts := strings.Fields(strings.TrimSuffix(base, ".log"))
	if len(parts) < 3 {
		return fail("want <implementation> <dataset> <n>cpus[ chunk<c>]")
	}
	fn := FileName{Implementation: parts[0], Dataset: Stem(parts[1])}
	if fn.Dataset == "" {
		return fail("empty dataset")
	}
	m := fileCPUsRE.FindStringSubmatch(parts[2])
	if m == nil {
		return fail("missing <n>cpus field")
	}
	cpus, err := parseCPUs(m[1])
	if err != nil {
		return fail(err.Error())
	}
	fn.NumCPUs = cpus
	if len(parts) > 3 {
		m := fileChunkRE.FindStringSubmatch(parts[3])
		if m == nil {
			return fail("malformed chunk field " + strconv.Quote(parts[3]))
		}
		cs, err := strconv.Atoi(m[1])
		if err != nil || cs <= 0 {
			return fail("chunk size out of range")
		}
		fn.ChunkSize = cs
	}
	return fn, nil
}
