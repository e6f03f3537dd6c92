// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtag

import "github.com/pkg/errors"

// DatasetFlag is the flag directly-invoked implementations read their
// input graph from.
const DatasetFlag = "f"

// A Decoded is the identity of one benchmark run.
type Decoded struct {
	Board          string
	Implementation string
	Kind           Kind
	Dataset        string
	NumCPUs        int

	// ChunkSizes lists the chunk sizes the run stands for. It has
	// one element for direct implementations and the full tracked
	// set for the runtime variant.
	ChunkSizes []int
}

// A JobInput is the naming information attached to one job.
type JobInput struct {
	Tag        string
	ConfigName string
	Command    string
}

// A Decoder decodes run identities under a fixed Config.
// It is safe for concurrent use.
type Decoder struct {
	cfg *Config
}

// NewDecoder returns a Decoder using a copy of cfg. If cfg is nil,
// DefaultConfig is used. It fails if cfg has no runtime prefix or an
// invalid set of chunk sizes.
func NewDecoder(cfg *Config) (*Decoder, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	c.ChunkSizes = append([]int(nil), cfg.ChunkSizes...)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &Decoder{cfg: &c}, nil
}

// Config returns the decoder's configuration.
func (d *Decoder) Config() *Config {
	return d.cfg
}

// DecodeJob decodes the identity of a job from its tag, config name
// and command line. Any field that cannot be decoded fails the whole
// job: the returned error is a *DecodeError or a
// *MissingArgumentError, possibly wrapped.
func (d *Decoder) DecodeJob(in JobInput) (Decoded, error) {
	tag, err := ParseTag(in.Tag, d.cfg)
	if err != nil {
		return Decoded{}, err
	}
	rawBoard, cpus, err := ParseConfigName(in.ConfigName)
	if err != nil {
		return Decoded{}, err
	}
	cmd, err := ParseCommand(in.Command)
	if err != nil {
		return Decoded{}, err
	}
	dec := Decoded{
		Board:   d.cfg.Board(rawBoard),
		Kind:    tag.Kind(),
		NumCPUs: cpus,
	}
	switch tag := tag.(type) {
	case DirectTag:
		f, ok := cmd.Arg(DatasetFlag)
		if !ok || f == "" {
			return Decoded{}, &MissingArgumentError{Arg: "-" + DatasetFlag, Command: cmd.Line}
		}
		dec.Implementation = d.cfg.Implementation(tag.Implementation)
		dec.Dataset = Stem(f)
		dec.ChunkSizes = []int{tag.ChunkSize}
	case RuntimeTag:
		if len(cmd.Positional) == 0 {
			return Decoded{}, &MissingArgumentError{Arg: "#1", Command: cmd.Line}
		}
		dec.Implementation = d.cfg.Implementation(tag.Implementation)
		dec.Dataset = Stem(cmd.Positional[0])
		dec.ChunkSizes = d.trackedChunkSizes()
	}
	if dec.Dataset == "" {
		return Decoded{}, &DecodeError{Field: "command", Input: cmd.Line, Msg: "empty dataset name"}
	}
	return dec, nil
}

// DecodeFile decodes the identity of a run from a log file name.
// rawBoard is the raw board identifier for the log, typically the
// name of the directory holding it.
//
// A log of the runtime variant is replicated across the tracked chunk
// sizes, exactly as a job would be. A log of any other implementation
// without a chunk field stands for chunk size 0.
func (d *Decoder) DecodeFile(rawBoard, name string) (Decoded, error) {
	if rawBoard == "" {
		return Decoded{}, &DecodeError{Field: "board", Input: name, Msg: "no board for log"}
	}
	fn, err := ParseFileName(name)
	if err != nil {
		return Decoded{}, err
	}
	dec := Decoded{
		Board:          d.cfg.Board(rawBoard),
		Implementation: d.cfg.Implementation(fn.Implementation),
		Kind:           Direct,
		Dataset:        fn.Dataset,
		NumCPUs:        fn.NumCPUs,
		ChunkSizes:     []int{fn.ChunkSize},
	}
	if fn.Implementation == d.cfg.RuntimePrefix || fn.Implementation == d.cfg.runtimeImplementation() {
		if fn.ChunkSize != 0 {
			return Decoded{}, errors.WithStack(&DecodeError{Field: "file name", Input: name, Msg: "runtime variant takes no chunk size"})
		}
		dec.Kind = Runtime
		dec.Implementation = d.cfg.RuntimeName()
		dec.ChunkSizes = d.trackedChunkSizes()
	}
	return dec, nil
}

func (d *Decoder) trackedChunkSizes() []int {
	return append([]int(nil), d.cfg.ChunkSizes...)
}
