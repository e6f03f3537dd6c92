// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runtag decodes the identity of a benchmark run from the
// names that travel with it: the job tag, the config name, the
// benchmark command line and, for logs read from disk, the file name.
//
// Every naming shape has its own decoder returning a value or a
// *DecodeError; the Decoder combines them under an explicit Config.
package runtag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Kind classifies implementations by how they treat chunk size.
type Kind int

const (
	// Direct implementations (lock-based, atomic) are invoked
	// directly and run with one chunk size, recorded in their tag.
	Direct Kind = iota

	// Runtime is the data-parallel runtime variant. It does not
	// take a chunk size.
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Direct:
		return "direct"
	case Runtime:
		return "runtime"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// A Tag is a decoded job tag: a DirectTag or a RuntimeTag.
type Tag interface {
	Kind() Kind
	isTag()
}

// A DirectTag names a directly-invoked implementation and the chunk
// size it ran with.
type DirectTag struct {
	Implementation string
	ChunkSize      int
}

// A RuntimeTag names the data-parallel runtime variant.
type RuntimeTag struct {
	Implementation string
}

func (DirectTag) Kind() Kind  { return Direct }
func (RuntimeTag) Kind() Kind { return Runtime }
func (DirectTag) isTag()      {}
func (RuntimeTag) isTag()     {}

var directTagRE = regexp.MustCompile(`^([\w.-]+?)chunksize_(\d+)`)

// tagSeparators are stripped, once, from the end of the
// implementation part of a direct tag.
const tagSeparators = "_-."

// ParseTag decodes a job tag.
//
// A tag starting with cfg.RuntimePrefix is a RuntimeTag, and may not
// carry a chunk size. Otherwise the tag must have the form
// <implementation>[sep]chunksize_<digits>, for example
// "atomic_chunksize_64" or "mutexchunksize_16".
func ParseTag(tag string, cfg *Config) (Tag, error) {
	if cfg.RuntimePrefix == "" {
		return nil, &DecodeError{Field: "tag", Input: tag, Msg: "no runtime prefix configured"}
	}
	m := directTagRE.FindStringSubmatch(tag)
	if strings.HasPrefix(tag, cfg.RuntimePrefix) {
		if m != nil {
			return nil, &DecodeError{Field: "tag", Input: tag, Msg: "runtime variant takes no chunk size"}
		}
		return RuntimeTag{Implementation: cfg.runtimeImplementation()}, nil
	}
	if m == nil {
		return nil, &DecodeError{Field: "tag", Input: tag, Msg: "want <implementation>chunksize_<n> or the runtime prefix " + strconv.Quote(cfg.RuntimePrefix)}
	}
	impl := m[1]
	if len(impl) > 1 && strings.IndexByte(tagSeparators, impl[len(impl)-1]) >= 0 {
		impl = impl[:len(impl)-1]
	}
	cs, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &DecodeError{Field: "tag", Input: tag, Msg: "chunk size: " + err.(*strconv.NumError).Err.Error()}
	}
	return DirectTag{Implementation: impl, ChunkSize: cs}, nil
}

var (
	cpusSuffixRE = regexp.MustCompile(`^(.+)_(\d+)cpus`)
	cpusPrefixRE = regexp.MustCompile(`^(.*\D)(\d+)_cpus`)
)

const maxCPUs = 1 << 16

// ParseConfigName decodes a config name of the form
// <board>_<n>cpus or <board><n>_cpus into the raw board identifier
// and the CPU count.
func ParseConfigName(name string) (board string, cpus int, err error) {
	m := cpusSuffixRE.FindStringSubmatch(name)
	if m == nil {
		m = cpusPrefixRE.FindStringSubmatch(name)
	}
	if m == nil {
		return "", 0, &DecodeError{Field: "config name", Input: name, Msg: "want <board>_<n>cpus or <board><n>_cpus"}
	}
	cpus, err = parseCPUs(m[2])
	if err != nil {
		return "", 0, &DecodeError{Field: "config name", Input: name, Msg: err.Error()}
	}
	board = strings.TrimRight(m[1], tagSeparators)
	if board == "" {
		return "", 0, &DecodeError{Field: "config name", Input: name, Msg: "missing board"}
	}
	return board, cpus, nil
}

func parseCPUs(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxCPUs {
		return 0, errors.Errorf("CPU count %s out of range", s)
	}
	return n, nil
}
