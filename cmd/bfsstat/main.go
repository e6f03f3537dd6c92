// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Bfsstat collects BFS benchmark runs into a canonical dataset and
// reports on it.
//
// Usage:
//
//	bfsstat [flags] [cluster_*.csv ...]
//
// With CSV arguments, bfsstat loads and concatenates previously
// exported datasets. Each file's cluster is the part of its base name
// before the first underscore. Runtime-variant rows that repeat one
// run across the tracked chunk sizes are recognized as such again.
// A CSV file is a single input: any malformed row fails the whole
// command, unlike ingestion, where a run that cannot be read or
// decoded is only counted and logged.
//
// With -db and -upload, bfsstat instead reads the dataset stored
// under that upload ID.
//
// Otherwise bfsstat ingests benchmark output. By default it reads the
// job archive under -jobs: every directory holding a metadata.yaml
// and a stdout.log is one job, and only completed jobs that are not
// compile steps contribute. With -logs it instead reads raw *.log
// files from a local directory or a gs://bucket/prefix, taking the
// run's identity from the file name
//
//	<implementation> <dataset>.<ext> <N>cpus[ chunk<C>].log
//
// and the board from the enclosing directory.
//
// For each run, the first two timing samples are discarded as warmup
// and the rest are summarized by their geometric mean, standard
// deviation, minimum and maximum. Runs with fewer than three samples
// are dropped. A run of the runtime-scheduled variant is recorded once
// for every tracked chunk size.
//
// The -format flag selects how the dataset is printed: "text" prints
// the mean runtime of each configuration as a table, "csv" the
// canonical CSV, and "html" an HTML table. The -o flag also writes the
// canonical CSV to a file, -png draws strong-scaling charts into a
// directory, and -db stores the dataset in a database given as
// DRIVER:DSN, for example sqlite3:runs.db. With -unreplicated, each
// runtime-variant run is reported once, with no chunk size, instead
// of once per tracked chunk size.
//
// The -config flag names a YAML file mapping raw board and
// implementation names to display names and setting the runtime
// variant's tag prefix and tracked chunk sizes:
//
//	runtime_prefix: openmp
//	chunk_sizes: [16, 32, 64, 256, 1024, 4096]
//	boards:
//	  milan1: AMD Milan
//	  milan2: AMD Milan
//	implementations:
//	  mutex: lock-based
//
// If no run can be decoded at all, bfsstat logs a warning; with
// -strict, it fails instead.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	"github.com/Sasso0101/thesis/ingest"
	"github.com/Sasso0101/thesis/internal/jobs"
	"github.com/Sasso0101/thesis/internal/logsrc"
	"github.com/Sasso0101/thesis/runchart"
	"github.com/Sasso0101/thesis/runset"
	"github.com/Sasso0101/thesis/runstore"
	_ "github.com/Sasso0101/thesis/runstore/sqlite3"
	"github.com/Sasso0101/thesis/runtag"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var exit = os.Exit

// noDataMessage is printed when a pass finds no usable runs.
const noDataMessage = "No data found"

type options struct {
	jobs     string
	logs     string
	out      string
	format   string
	png      string
	db       string
	config   string
	workers  int
	logLevel string
	strict   bool
	upload   string
	unrepl   bool
}

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "bfsstat [flags] [cluster_*.csv ...]",
		Short: "Summarize BFS benchmark runs",
		Long: `bfsstat parses BFS benchmark job output or raw logs, summarizes
the timing samples of every run, and writes the resulting dataset as
a table, CSV, charts or database rows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.jobs, "jobs", "jobs", "job archive `dir` to ingest")
	f.StringVar(&opts.logs, "logs", "", "ingest raw logs from `dir` or gs://bucket/prefix instead of the job archive")
	f.StringVarP(&opts.out, "output", "o", "", "also write the canonical CSV to `file`")
	f.StringVar(&opts.format, "format", "text", "print the dataset as `format`: text, csv or html")
	f.StringVar(&opts.png, "png", "", "draw strong-scaling charts into `dir`")
	f.StringVar(&opts.db, "db", "", "store the dataset in the database `driver:dsn`")
	f.StringVar(&opts.config, "config", "", "naming configuration YAML `file`")
	f.IntVar(&opts.workers, "workers", 0, "process at most `n` inputs at once (0 means GOMAXPROCS)")
	f.StringVar(&opts.logLevel, "log-level", "info", "logging `level`")
	f.BoolVar(&opts.strict, "strict", false, "fail if no input can be decoded")
	f.StringVar(&opts.upload, "upload", "", "read the dataset stored under upload `id` in the -db database")
	f.BoolVar(&opts.unrepl, "unreplicated", false, "report runtime-variant runs once instead of once per chunk size")
	return cmd
}

func main() {
	cmd := newCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		logrus.Error(err)
		exit(1)
	}
}

func run(ctx context.Context, opts *options, args []string, stdout, stderr io.Writer) error {
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(level)
	log := logrus.NewEntry(logger)

	switch opts.format {
	case "text", "csv", "html":
	default:
		return errors.Errorf("unknown format %q", opts.format)
	}

	if opts.upload != "" && (opts.db == "" || len(args) > 0) {
		return errors.New("-upload needs -db and no CSV arguments")
	}
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}

	var ds *runset.Dataset
	switch {
	case opts.upload != "":
		ds, err = query(ctx, opts.db, opts.upload)
	case len(args) > 0:
		ds, err = loadCSVs(args, cfg)
	default:
		ds, err = ingestRuns(ctx, opts, cfg, log)
	}
	if err != nil {
		return err
	}
	if opts.unrepl {
		ds = ds.Unreplicated()
	}

	if ds.Len() == 0 {
		fmt.Fprintln(stdout, noDataMessage)
		return nil
	}

	if opts.out != "" {
		if err := writeCSVFile(opts.out, ds); err != nil {
			return err
		}
		log.WithField("records", ds.Len()).Infof("wrote %s", opts.out)
	}
	if opts.png != "" {
		files, err := runchart.Write(ds, opts.png, nil)
		if err != nil {
			return errors.Wrap(err, "drawing charts")
		}
		log.Infof("wrote %d charts to %s", len(files), opts.png)
	}
	if opts.db != "" && opts.upload == "" {
		id, err := store(ctx, opts.db, ds)
		if err != nil {
			return err
		}
		log.WithField("upload", id).Info("stored dataset")
	}

	switch opts.format {
	case "csv":
		return ds.WriteCSV(stdout)
	case "html":
		return formatHTML(stdout, ds)
	}
	formatText(stdout, ds)
	return nil
}

// clusterOf returns the cluster name encoded in the base name of a
// CSV export.
func clusterOf(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cluster, _, _ := strings.Cut(base, "_")
	return cluster
}

func loadConfig(path string) (*runtag.Config, error) {
	if path == "" {
		return runtag.DefaultConfig(), nil
	}
	return runtag.LoadConfig(path)
}

func loadCSVs(paths []string, cfg *runtag.Config) (*runset.Dataset, error) {
	var all []*runset.Dataset
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		ds, err := runset.ReadCSV(f, clusterOf(path))
		f.Close()
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		all = append(all, ds.MarkReplicated(cfg.RuntimeName(), cfg.ChunkSizes))
	}
	return runset.Concat(all...), nil
}

func ingestRuns(ctx context.Context, opts *options, cfg *runtag.Config, log *logrus.Entry) (*runset.Dataset, error) {
	d, err := runtag.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	in := &ingest.Ingester{
		Decoder: d,
		Workers: opts.workers,
		Log:     log,
	}

	var (
		ds  *runset.Dataset
		rep *ingest.Report
	)
	if opts.logs != "" {
		src, err := logsrc.Open(ctx, opts.logs)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		entries, err := src.List(ctx)
		if err != nil {
			return nil, err
		}
		ds, rep, err = in.FromLogs(ctx, entries)
		if err != nil {
			return nil, err
		}
	} else {
		js, err := jobs.Load(ctx, opts.jobs)
		if err != nil {
			return nil, err
		}
		ds, rep, err = in.FromJobs(ctx, js)
		if err != nil {
			return nil, err
		}
	}

	log.Info(rep.String())
	if rep.Systematic() {
		err := errors.Errorf("none of %d inputs could be decoded; check the naming configuration", rep.Inputs-rep.ReadErrors)
		if opts.strict {
			return nil, err
		}
		log.Warn(err)
	}
	return ds, nil
}

func writeCSVFile(path string, ds *runset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ds.WriteCSV(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

func openDB(target string) (*runstore.DB, error) {
	driver, dsn, ok := strings.Cut(target, ":")
	if !ok || driver == "" {
		return nil, errors.Errorf("-db %q: want DRIVER:DSN", target)
	}
	db, err := runstore.OpenSQL(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", driver)
	}
	return db, nil
}

func query(ctx context.Context, target, uploadID string) (*runset.Dataset, error) {
	db, err := openDB(target)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Query(ctx, uploadID)
}

func store(ctx context.Context, target string, ds *runset.Dataset) (string, error) {
	db, err := openDB(target)
	if err != nil {
		return "", err
	}
	defer db.Close()
	u, err := db.NewUpload(ctx)
	if err != nil {
		return "", err
	}
	if err := u.InsertDataset(ds); err != nil {
		u.Abort()
		return "", err
	}
	return u.ID, u.Commit()
}
