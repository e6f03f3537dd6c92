// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runmath reduces the timing samples of one benchmark run to
// summary statistics.
//
// The central tendency of a run is its geometric mean: runtimes are
// compared across configurations as ratios (speedups), and the
// geometric mean is the average that composes with ratios. Repeat
// runs of one configuration, on the other hand, are independent
// measurements and are combined with the arithmetic Mean.
package runmath

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/pkg/errors"
)

// A Summary summarizes the post-warmup samples of one run.
//
// The zero Summary is undefined. Use Defined to distinguish a real
// summary from the absence of one; the fields of an undefined Summary
// are meaningless and must not be used as data.
type Summary struct {
	// GeoMean is the geometric mean of the samples.
	GeoMean float64

	// StdDev is the sample standard deviation, or 0 for a single
	// sample.
	StdDev float64

	// Min and Max bound the samples.
	Min, Max float64

	// N is the number of samples summarized.
	N int

	defined bool
}

// Undefined is the summary of a run with no usable samples.
var Undefined = Summary{}

// Defined reports whether s summarizes at least one sample.
func (s Summary) Defined() bool {
	return s.defined
}

func (s Summary) String() string {
	if !s.defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4g ± %.2g [%.4g, %.4g] n=%d", s.GeoMean, s.StdDev, s.Min, s.Max, s.N)
}

// NewSummary returns a defined Summary with the given fields, as read
// back from an export. It does not validate them; see Check.
func NewSummary(geomean, stddev, min, max float64, n int) Summary {
	return Summary{GeoMean: geomean, StdDev: stddev, Min: min, Max: max, N: n, defined: true}
}

// An InvariantError reports samples or statistics that can only come
// from a broken upstream contract, such as a non-positive elapsed
// time reaching the geometric mean.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "runmath: invariant violated: " + e.Msg
}

// Summarize computes the summary of xs.
//
// If xs is empty, it returns Undefined. Every sample must be finite
// and strictly positive; Summarize panics with an *InvariantError
// otherwise.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Undefined
	}
	for i, x := range xs {
		if !(x > 0) || math.IsInf(x, 0) {
			panic(&InvariantError{fmt.Sprintf("sample %d is %v, want a finite positive time", i, x)})
		}
	}
	s := stats.Sample{Xs: xs}
	min, max := s.Bounds()
	sum := Summary{
		GeoMean: s.GeoMean(),
		Min:     min,
		Max:     max,
		N:       len(xs),
		defined: true,
	}
	if len(xs) > 1 {
		sum.StdDev = s.StdDev()
	}
	// The geometric mean is computed in log space and can land a
	// hair outside the bounds when all samples are equal.
	sum.GeoMean = math.Min(math.Max(sum.GeoMean, min), max)
	if err := sum.Check(); err != nil {
		panic(err)
	}
	return sum
}

// Check reports whether s is a defined summary satisfying
// 0 <= Min <= GeoMean <= Max with all fields finite and StdDev >= 0.
// Any violation is returned as an *InvariantError.
func (s Summary) Check() error {
	if !s.defined {
		return &InvariantError{"summary is undefined"}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"geomean", s.GeoMean}, {"stddev", s.StdDev}, {"min", s.Min}, {"max", s.Max}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return &InvariantError{fmt.Sprintf("%s is %v", f.name, f.v)}
		}
	}
	if s.Min > s.Max {
		return &InvariantError{fmt.Sprintf("min %v > max %v", s.Min, s.Max)}
	}
	if s.GeoMean < s.Min || s.GeoMean > s.Max {
		return &InvariantError{fmt.Sprintf("geomean %v outside [%v, %v]", s.GeoMean, s.Min, s.Max)}
	}
	return nil
}

// Mean returns the arithmetic mean of xs. It is used to combine
// repeat measurements of one configuration.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.New("mean of no values")
	}
	return stats.Mean(xs), nil
}
