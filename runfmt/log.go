// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfmt

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	// MinSamples is the number of samples a log must yield before
	// any of them are used.
	MinSamples = 3

	// Warmup is the number of leading samples discarded from every
	// usable log.
	Warmup = 2
)

// ErrNoData is returned when a log yields fewer than MinSamples
// samples.
var ErrNoData = errors.New("fewer than 3 timing samples")

// A Log is the usable content of one benchmark log.
type Log struct {
	FileName string

	// Times are the elapsed times left after warmup exclusion, in
	// the order they appeared in the log.
	Times []float64

	// Warmup are the discarded leading samples.
	Warmup []float64

	// Warnings are the per-line syntax errors. They did not prevent
	// reading the log.
	Warnings []error
}

// Read reads every sample in r and applies the warmup policy. If
// fewer than MinSamples samples were recognized it returns an error
// wrapping ErrNoData, together with a Log carrying the warnings.
func Read(r io.Reader, fileName string) (*Log, error) {
	log := &Log{FileName: fileName}
	var times []float64
	rd := NewReader(r, fileName)
	for rd.Scan() {
		switch rec := rd.Result().(type) {
		case *Sample:
			times = append(times, rec.Elapsed)
		case *SyntaxError:
			log.Warnings = append(log.Warnings, rec)
		}
	}
	if err := rd.Err(); err != nil {
		return log, errors.Wrap(err, "reading log")
	}
	if len(times) < MinSamples {
		return log, errors.Wrapf(ErrNoData, "%s: %d recognized", fileName, len(times))
	}
	log.Warmup = times[:Warmup:Warmup]
	log.Times = times[Warmup:]
	return log, nil
}

// Parse returns the post-warmup elapsed times recorded in text.
// It returns ErrNoData (possibly wrapped) if text holds fewer than
// MinSamples samples.
func Parse(text string) ([]float64, error) {
	log, err := Read(strings.NewReader(text), "")
	if err != nil {
		return nil, err
	}
	return log.Times, nil
}
