// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ingest turns batches of benchmark jobs or raw logs into a
// runset.Dataset.
//
// Each input is parsed, summarized and decoded independently on a
// bounded pool of goroutines. Results are collected into per-input
// slots and concatenated in input order once every input is done, so
// the output does not depend on scheduling.
package ingest

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/Sasso0101/thesis/internal/jobs"
	"github.com/Sasso0101/thesis/internal/logsrc"
	"github.com/Sasso0101/thesis/runfmt"
	"github.com/Sasso0101/thesis/runmath"
	"github.com/Sasso0101/thesis/runset"
	"github.com/Sasso0101/thesis/runtag"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// An Ingester builds datasets from benchmark inputs.
type Ingester struct {
	// Decoder decodes run identities. If nil, a Decoder with the
	// default configuration is used.
	Decoder *runtag.Decoder

	// Workers bounds the number of inputs processed at once. If
	// Workers <= 0, GOMAXPROCS is used.
	Workers int

	// Log receives per-input diagnostics. If nil, the standard
	// logrus logger is used.
	Log *logrus.Entry
}

// An outcome is what became of one input.
type outcome int

const (
	used outcome = iota
	noData
	decodeFailed
	missingArg
	readFailed
)

// A Report summarizes one ingestion pass.
type Report struct {
	// Inputs is the number of inputs considered.
	Inputs int

	// Used is the number of inputs that produced records.
	Used int

	// Records is the number of records produced.
	Records int

	// NoData counts inputs with too few timing samples.
	NoData int

	// DecodeFailures counts inputs whose identity could not be
	// decoded, and MissingArguments those whose command line lacked
	// a required argument.
	DecodeFailures   int
	MissingArguments int

	// ReadErrors counts inputs whose log or job metadata could not
	// be read.
	ReadErrors int

	// Warnings counts unparseable timing lines in otherwise usable
	// logs.
	Warnings int
}

func (r *Report) add(res *result) {
	r.Inputs++
	r.Warnings += res.warnings
	switch res.outcome {
	case used:
		r.Used++
		r.Records += len(res.recs)
	case noData:
		r.NoData++
	case decodeFailed:
		r.DecodeFailures++
	case missingArg:
		r.MissingArguments++
	case readFailed:
		r.ReadErrors++
	}
}

// Systematic reports whether every input that could be read failed to
// decode. This usually means the naming configuration does not match
// the inputs rather than that individual inputs are broken.
func (r *Report) Systematic() bool {
	failed := r.DecodeFailures + r.MissingArguments
	return failed > 0 && failed == r.Inputs-r.ReadErrors
}

func (r *Report) String() string {
	return fmt.Sprintf("%d inputs, %d used, %d records; %d without data, %d undecodable, %d missing arguments, %d unreadable, %d bad lines",
		r.Inputs, r.Used, r.Records, r.NoData, r.DecodeFailures, r.MissingArguments, r.ReadErrors, r.Warnings)
}

type result struct {
	recs     []runset.Record
	outcome  outcome
	warnings int
}

// An input is one unit of work: a way to decode it and a way to read
// its timing log.
type input struct {
	log    *logrus.Entry
	origin string
	decode func() (runtag.Decoded, error)
	open   func(ctx context.Context) (io.ReadCloser, error)

	// broken is set when the input is known to be unreadable before
	// any work is done.
	broken error
}

func (in *Ingester) decoder() (*runtag.Decoder, error) {
	if in.Decoder == nil {
		return runtag.NewDecoder(nil)
	}
	return in.Decoder, nil
}

func (in *Ingester) logger() *logrus.Entry {
	if in.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return in.Log
}

// FromJobs ingests the ingestible jobs in js. Jobs that did not
// complete or are compile steps are skipped without being counted.
// Jobs whose metadata could not be read are counted as read errors.
func (in *Ingester) FromJobs(ctx context.Context, js []*jobs.Job) (*runset.Dataset, *Report, error) {
	d, err := in.decoder()
	if err != nil {
		return nil, nil, err
	}
	var inputs []input
	for _, j := range js {
		if j.Err == nil && !j.Ingestible() {
			continue
		}
		j := j
		inputs = append(inputs, input{
			log:    in.logger().WithFields(logrus.Fields{"job": j.ID, "dir": j.Dir}),
			origin: j.ID,
			decode: func() (runtag.Decoded, error) {
				return d.DecodeJob(runtag.JobInput{Tag: j.Tag, ConfigName: j.ConfigName, Command: j.Command})
			},
			open:   func(context.Context) (io.ReadCloser, error) { return j.Open() },
			broken: j.Err,
		})
	}
	return in.run(ctx, inputs)
}

// FromLogs ingests the raw logs in entries, decoding each run's
// identity from its file name and board.
func (in *Ingester) FromLogs(ctx context.Context, entries []logsrc.Entry) (*runset.Dataset, *Report, error) {
	d, err := in.decoder()
	if err != nil {
		return nil, nil, err
	}
	inputs := make([]input, len(entries))
	for i, e := range entries {
		e := e
		inputs[i] = input{
			log:    in.logger().WithField("log", e.Name),
			origin: e.Name,
			decode: func() (runtag.Decoded, error) { return d.DecodeFile(e.Board, e.Name) },
			open:   e.Open,
		}
	}
	return in.run(ctx, inputs)
}

func (in *Ingester) run(ctx context.Context, inputs []input) (*runset.Dataset, *Report, error) {
	workers := in.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = process(gctx, &inputs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ds := &runset.Dataset{}
	rep := &Report{}
	for i := range results {
		rep.add(&results[i])
		for _, rec := range results[i].recs {
			if err := ds.Add(rec); err != nil {
				return nil, nil, errors.Wrapf(err, "input %s", inputs[i].origin)
			}
		}
	}
	return ds, rep, nil
}

// process runs one input through decoding, parsing and
// summarization.
func process(ctx context.Context, in *input) result {
	if in.broken != nil {
		in.log.WithError(in.broken).Warn("cannot read job metadata")
		return result{outcome: readFailed}
	}
	dec, err := in.decode()
	if err != nil {
		var ma *runtag.MissingArgumentError
		if errors.As(err, &ma) {
			in.log.WithError(err).Warn("missing required argument")
			return result{outcome: missingArg}
		}
		var de *runtag.DecodeError
		if errors.As(err, &de) {
			in.log.WithField("field", de.Field).WithError(err).Warn("cannot decode run identity")
		} else {
			in.log.WithError(err).Warn("cannot decode run identity")
		}
		return result{outcome: decodeFailed}
	}

	rc, err := in.open(ctx)
	if err != nil {
		in.log.WithError(err).Error("cannot open log")
		return result{outcome: readFailed}
	}
	defer rc.Close()
	log, err := runfmt.Read(rc, in.origin)
	res := result{}
	if log != nil {
		res.warnings = len(log.Warnings)
		for _, w := range log.Warnings {
			in.log.WithError(w).Debug("skipping timing line")
		}
	}
	switch {
	case errors.Is(err, runfmt.ErrNoData):
		in.log.WithError(err).Info("no usable data")
		res.outcome = noData
		return res
	case err != nil:
		in.log.WithError(err).Error("cannot read log")
		res.outcome = readFailed
		return res
	}

	res.recs = runset.Build(dec, runmath.Summarize(log.Times), in.origin)
	in.log.WithField("records", len(res.recs)).Debug("ingested")
	return res
}
