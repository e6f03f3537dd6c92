// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runset

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Sasso0101/thesis/runmath"
	"github.com/pkg/errors"
)

// CSVHeader is the header row of the canonical CSV export.
var CSVHeader = []string{
	"board", "implementation", "dataset", "num_cpus", "chunksize",
	"runtime", "std_runtime", "min_runtime", "max_runtime",
}

func strof(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// WriteCSV writes d to w in the canonical CSV format, one row per
// record in dataset order.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	row := make([]string, len(CSVHeader))
	for _, rec := range d.recs {
		k, s := rec.Key, rec.Summary
		row = append(row[:0],
			k.Board, k.Implementation, k.Dataset,
			strconv.Itoa(k.NumCPUs), strconv.Itoa(k.ChunkSize),
			strof(s.GeoMean), strof(s.StdDev), strof(s.Min), strof(s.Max))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a canonical CSV export from r. Every record is
// tagged with cluster, and its origin is "<cluster>:<line>".
//
// The export does not say which records came from one fanned-out run;
// see MarkReplicated.
//
// Columns are matched by header name, so their order may differ from
// CSVHeader and extra columns are ignored. Rows that fail the record
// invariant are rejected with an error naming the line.
func ReadCSV(r io.Reader, cluster string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty CSV input")
	} else if err != nil {
		return nil, errors.Wrap(err, "reading CSV header")
	}
	col := make(map[string]int)
	for i, name := range header {
		col[name] = i
	}
	idx := make([]int, len(CSVHeader))
	for i, name := range CSVHeader {
		j, ok := col[name]
		if !ok {
			return nil, errors.Errorf("CSV header missing column %q", name)
		}
		idx[i] = j
	}

	d := &Dataset{}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "reading CSV")
		}
		line, _ := cr.FieldPos(0)
		rec, err := parseRow(fields, idx)
		if err == nil {
			rec.Cluster = cluster
			rec.Origin = cluster + ":" + strconv.Itoa(line)
			err = d.Add(rec)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "CSV line %d", line)
		}
	}
	return d, nil
}

func parseRow(fields []string, idx []int) (Record, error) {
	get := func(i int) string { return fields[idx[i]] }
	var ints [2]int
	for i := range ints {
		n, err := strconv.Atoi(get(3 + i))
		if err != nil {
			return Record{}, errors.Wrapf(err, "column %s", CSVHeader[3+i])
		}
		ints[i] = n
	}
	var fs [4]float64
	for i := range fs {
		x, err := strconv.ParseFloat(get(5+i), 64)
		if err != nil {
			return Record{}, errors.Wrapf(err, "column %s", CSVHeader[5+i])
		}
		fs[i] = x
	}
	return Record{
		Key: RunKey{
			Board:          get(0),
			Implementation: get(1),
			Dataset:        get(2),
			NumCPUs:        ints[0],
			ChunkSize:      ints[1],
		},
		Summary: runmath.NewSummary(fs[0], fs[1], fs[2], fs[3], 0),
	}, nil
}
