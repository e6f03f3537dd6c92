// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runfmt reads the timing lines printed by the BFS benchmark
// binaries.
//
// Three line shapes are recognized, and they may be mixed freely
// within one log:
//
//	run_id=<n>,<field>=<value>,...,<elapsed>
//	run=<n>,...,<elapsed>
//	Trial time:          <elapsed>
//
// For the first two shapes the elapsed time is the last
// comma-separated token; for the third it is the last
// whitespace-separated token. All other lines are ignored.
//
// The Reader is a streaming, line-at-a-time API modeled on
// bufio.Scanner. Read and Parse build on it and apply the warmup
// policy shared by every consumer.
package runfmt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
)

// A Shape identifies which recognized line shape a sample came from.
type Shape int

const (
	ShapeRunID Shape = iota // run_id=<n>,...,<elapsed>
	ShapeRun                // run=<n>,...,<elapsed>
	ShapeTrial              // Trial ... <elapsed>
)

func (s Shape) String() string {
	switch s {
	case ShapeRunID:
		return "run_id"
	case ShapeRun:
		return "run"
	case ShapeTrial:
		return "trial"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// A Sample is a single elapsed-time measurement read from one line.
type Sample struct {
	// Run is the run index printed at the start of the line, or -1
	// if the line did not carry one.
	Run int

	// Elapsed is the elapsed time, in the unit printed by the
	// benchmark (seconds for all current binaries).
	Elapsed float64

	Shape Shape

	fileName string
	line     int
}

// Pos returns the file name and 1-based line number the sample was
// read from.
func (s *Sample) Pos() (fileName string, line int) {
	return s.fileName, s.line
}

// A SyntaxError reports a recognized line whose elapsed time could
// not be used. It never stops the Reader.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// A Record is a single record read from a log. It is either a
// *Sample or a *SyntaxError.
type Record interface {
	Pos() (fileName string, line int)
}

var _ Record = (*Sample)(nil)
var _ Record = (*SyntaxError)(nil)

var noResult = &SyntaxError{"", 0, "Reader.Scan has not been called"}

// A Reader reads timing samples from a benchmark log.
//
// A Reader retains ownership of the Sample it returns; a caller that
// needs to keep one should copy it.
type Reader struct {
	br   *bufio.Reader
	long []byte // a recognized line that overflowed br
	err  error

	fileName string
	line     int

	sample Sample
	cur    Record
}

// NewReader constructs a Reader over r. fileName is used in error
// messages only.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	r.br = bufio.NewReaderSize(ior, 64*1024)
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.fileName = fileName
	r.line = 0
	r.err = nil
	r.cur = nil
}

var (
	runIDPrefix = []byte("run_id=")
	runPrefix   = []byte("run=")
	trialPrefix = []byte("Trial")
)

// Scan advances the reader to the next sample or syntax error and
// reports whether one was read. At EOF or on an I/O error it returns
// false, and the caller should check Err.
//
// Lines may be of any length.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for {
		line, err := r.readLine()
		if err != nil {
			if err != io.EOF {
				r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
			}
			r.cur = nil
			return false
		}
		shape, ok := classify(line)
		if !ok {
			continue
		}
		if err := r.parseLine(shape, line); err != nil {
			r.cur = err
		} else {
			r.cur = &r.sample
		}
		return true
	}
}

// classify reports which recognized shape line has, if any.
func classify(line []byte) (Shape, bool) {
	switch {
	case bytes.HasPrefix(line, runIDPrefix):
		return ShapeRunID, true
	case bytes.HasPrefix(line, runPrefix):
		return ShapeRun, true
	case bytes.HasPrefix(line, trialPrefix):
		return ShapeTrial, true
	}
	return 0, false
}

// readLine returns the next line without its line terminator. A line
// that does not fit in the read buffer is assembled in full only if
// it starts like a recognized line; otherwise its content is dropped
// and an empty line is returned in its place.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadSlice('\n')
	if len(line) == 0 && err != nil {
		if err != io.EOF {
			r.line++
		}
		return nil, err
	}
	r.line++
	if err == bufio.ErrBufferFull {
		_, keep := classify(line)
		r.long = r.long[:0]
		for err == bufio.ErrBufferFull {
			if keep {
				r.long = append(r.long, line...)
			}
			line, err = r.br.ReadSlice('\n')
		}
		if keep {
			r.long = append(r.long, line...)
			line = r.long
		} else {
			line = nil
		}
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), nil
}

func (r *Reader) newSyntaxError(msg string) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, msg}
}

func (r *Reader) parseLine(shape Shape, line []byte) *SyntaxError {
	var tok []byte
	run := -1
	switch shape {
	case ShapeRunID, ShapeRun:
		if i := bytes.LastIndexByte(line, ','); i >= 0 {
			tok = line[i+1:]
		} else {
			tok = line
		}
		run = runIndex(line, shape)
	case ShapeTrial:
		fields := bytes.Fields(line)
		tok = fields[len(fields)-1]
	}
	tok = bytes.TrimSpace(tok)
	if len(tok) == 0 {
		return r.newSyntaxError("missing elapsed time")
	}
	v, err := strconv.ParseFloat(string(tok), 64)
	if err != nil {
		return r.newSyntaxError(fmt.Sprintf("parsing elapsed time %q: %v", tok, err.(*strconv.NumError).Err))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return r.newSyntaxError(fmt.Sprintf("elapsed time %q is not a positive duration", tok))
	}
	r.sample = Sample{Run: run, Elapsed: v, Shape: shape, fileName: r.fileName, line: r.line}
	return nil
}

// runIndex returns the integer following "run_id=" or "run=", or -1.
func runIndex(line []byte, shape Shape) int {
	if shape == ShapeRunID {
		line = line[len(runIDPrefix):]
	} else {
		line = line[len(runPrefix):]
	}
	if i := bytes.IndexByte(line, ','); i >= 0 {
		line = line[:i]
	}
	n, err := strconv.Atoi(string(line))
	if err != nil {
		return -1
	}
	return n
}

// Result returns the record read by the last call to Scan: either a
// *Sample or a *SyntaxError. Syntax errors are not fatal, so the
// caller may keep calling Scan.
func (r *Reader) Result() Record {
	if r.cur == nil {
		return noResult
	}
	return r.cur
}

// Err returns the first non-EOF I/O error encountered by the Reader.
func (r *Reader) Err() error {
	return r.err
}
