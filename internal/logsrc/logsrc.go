// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logsrc lists raw benchmark logs in a local directory tree or
// under a Cloud Storage prefix.
package logsrc

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// LogExt is the extension of benchmark log files.
const LogExt = ".log"

// An Entry is one log file.
type Entry struct {
	// Name is the log's path within its source.
	Name string

	// Board is the raw board identifier of the log, the name of the
	// directory containing it.
	Board string

	open func(ctx context.Context) (io.ReadCloser, error)
}

// Open opens the log for reading.
func (e Entry) Open(ctx context.Context) (io.ReadCloser, error) {
	return e.open(ctx)
}

// A Source lists logs.
type Source interface {
	// List returns every log in the source, sorted by name.
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Open returns the Source for loc. A loc of the form
// gs://bucket/prefix names a Cloud Storage prefix; anything else is a
// local directory.
func Open(ctx context.Context, loc string) (Source, error) {
	if rest, ok := strings.CutPrefix(loc, "gs://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, errors.Errorf("%s: missing bucket name", loc)
		}
		return NewGCS(ctx, bucket, prefix)
	}
	return Dir(loc), nil
}

// Dir is a Source reading logs from a local directory tree.
type Dir string

// List implements Source.
func (d Dir) List(ctx context.Context) ([]Entry, error) {
	root := string(d)
	var out []Entry
	err := filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() || !strings.HasSuffix(de.Name(), LogExt) {
			return nil
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		out = append(out, Entry{
			Name:  p,
			Board: filepath.Base(filepath.Dir(abs)),
			open: func(context.Context) (io.ReadCloser, error) {
				return os.Open(p)
			},
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing logs in %s", root)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close implements Source.
func (Dir) Close() error { return nil }

// GCS is a Source reading logs from a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS returns a Source for the logs under prefix in bucket,
// authenticating with Application Default Credentials.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	ts, err := google.DefaultTokenSource(ctx, storage.ScopeReadOnly)
	if err != nil {
		return nil, errors.Wrap(err, "finding default credentials")
	}
	client, err := storage.NewClient(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, errors.Wrap(err, "creating storage client")
	}
	return NewGCSFromClient(client, bucket, prefix), nil
}

// NewGCSFromClient returns a Source for the logs under prefix in
// bucket that uses client.
func NewGCSFromClient(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{client: client, bucket: bucket, prefix: prefix}
}

// List implements Source.
func (g *GCS) List(ctx context.Context) ([]Entry, error) {
	bkt := g.client.Bucket(g.bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: g.prefix})
	var out []Entry
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "listing gs://%s/%s", g.bucket, g.prefix)
		}
		if !strings.HasSuffix(attrs.Name, LogExt) {
			continue
		}
		obj := bkt.Object(attrs.Name)
		out = append(out, Entry{
			Name:  "gs://" + g.bucket + "/" + attrs.Name,
			Board: boardOf(g.bucket, attrs.Name),
			open: func(ctx context.Context) (io.ReadCloser, error) {
				return obj.NewReader(ctx)
			},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// boardOf returns the directory name of object, or the bucket name if
// the object is at the top level.
func boardOf(bucket, object string) string {
	dir := path.Dir(object)
	if dir == "." {
		return bucket
	}
	return path.Base(dir)
}

// Close implements Source.
func (g *GCS) Close() error {
	return g.client.Close()
}
