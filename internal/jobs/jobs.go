// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jobs reads an archive of benchmark jobs.
//
// An archive is a directory tree. Each job is a directory holding a
// metadata.yaml file describing the job and a stdout.log file with
// the job's captured standard output.
package jobs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// File names within a job directory.
const (
	MetadataFile = "metadata.yaml"
	StdoutFile   = "stdout.log"
)

// A Status is the final state of a job.
type Status string

const (
	Completed Status = "COMPLETED"
	Timeout   Status = "TIMEOUT"
	Failed    Status = "FAILED"
	Cancelled Status = "CANCELLED"
	Running   Status = "RUNNING"
	Queued    Status = "QUEUED"
)

// Known reports whether s is one of the defined statuses.
func (s Status) Known() bool {
	switch s {
	case Completed, Timeout, Failed, Cancelled, Running, Queued:
		return true
	}
	return false
}

// A Job is one archived benchmark job.
type Job struct {
	ID         string `yaml:"id"`
	Tag        string `yaml:"tag"`
	ConfigName string `yaml:"config_name"`
	Status     Status `yaml:"status"`
	Command    string `yaml:"command"`

	// Dir is the job's directory.
	Dir string `yaml:"-"`

	// Err is set if the job's metadata could not be read or parsed.
	// Only ID and Dir are meaningful then.
	Err error `yaml:"-"`
}

// StdoutPath returns the path of the job's captured standard output.
func (j *Job) StdoutPath() string {
	return filepath.Join(j.Dir, StdoutFile)
}

// Open opens the job's captured standard output.
func (j *Job) Open() (*os.File, error) {
	return os.Open(j.StdoutPath())
}

// Ingestible reports whether j should contribute data: its metadata
// is readable, it completed and it is not a compile step.
func (j *Job) Ingestible() bool {
	return j.Err == nil && j.Status == Completed && !strings.Contains(j.Tag, "compile")
}

// ReadMetadata parses the metadata file of the job in dir.
func ReadMetadata(dir string) (*Job, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	job := &Job{Dir: dir}
	if err := yaml.Unmarshal(data, job); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filepath.Join(dir, MetadataFile))
	}
	if job.ID == "" {
		job.ID = filepath.Base(dir)
	}
	return job, nil
}

// Load walks the archive rooted at root and returns every job in it,
// sorted by directory.
//
// A job whose metadata file cannot be read or parsed is still
// returned, with Err set, so one broken job does not hide the rest of
// the archive. Load itself fails only if the tree cannot be walked or
// ctx is done.
func Load(ctx context.Context, root string) ([]*Job, error) {
	var jobs []*Job
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || d.Name() != MetadataFile {
			return nil
		}
		dir := filepath.Dir(path)
		job, err := ReadMetadata(dir)
		if err != nil {
			job = &Job{ID: filepath.Base(dir), Dir: dir, Err: err}
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loading job archive %s", root)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Dir < jobs[j].Dir })
	return jobs, nil
}

// Broken returns the jobs in js whose metadata could not be read.
func Broken(js []*Job) []*Job {
	var out []*Job
	for _, j := range js {
		if j.Err != nil {
			out = append(out, j)
		}
	}
	return out
}

// Ingestible returns the jobs in js that should contribute data.
func Ingestible(js []*Job) []*Job {
	var out []*Job
	for _, j := range js {
		if j.Ingestible() {
			out = append(out, j)
		}
	}
	return out
}
