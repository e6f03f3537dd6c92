// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"strconv"

	"github.com/Sasso0101/thesis/runset"
	"github.com/google/safehtml/template"
	"github.com/olekukonko/tablewriter"
)

// A summaryRow is one configuration's line in the printed summary.
type summaryRow struct {
	Board          string
	Implementation string
	Dataset        string
	NumCPUs        string
	ChunkSize      string
	Runtime        string
	Runs           string
}

var summaryHeader = []string{"board", "implementation", "dataset", "cpus", "chunk size", "runtime (s)", "runs"}

// summarize averages repeat runs of each configuration.
func summarize(ds *runset.Dataset) []summaryRow {
	var rows []summaryRow
	for _, avg := range ds.AverageBy(runset.Fields, runset.ValueRuntime) {
		k := avg.Key
		cs := "-"
		if k.ChunkSize != 0 {
			cs = strconv.Itoa(k.ChunkSize)
		}
		rows = append(rows, summaryRow{
			Board:          k.Board,
			Implementation: k.Implementation,
			Dataset:        k.Dataset,
			NumCPUs:        strconv.Itoa(k.NumCPUs),
			ChunkSize:      cs,
			Runtime:        strconv.FormatFloat(avg.Mean, 'f', 4, 64),
			Runs:           strconv.Itoa(avg.N),
		})
	}
	return rows
}

// formatText prints the summary of ds as an aligned table.
func formatText(w io.Writer, ds *runset.Dataset) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(summaryHeader)
	t.SetAutoFormatHeaders(false)
	t.SetBorder(false)
	t.SetColumnSeparator(" ")
	t.SetCenterSeparator(" ")
	t.SetHeaderLine(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})
	for _, r := range summarize(ds) {
		t.Append([]string{r.Board, r.Implementation, r.Dataset, r.NumCPUs, r.ChunkSize, r.Runtime, r.Runs})
	}
	t.Render()
}

const htmlText = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>BFS benchmark summary</title>
<style>
.bfsstat { border-collapse: collapse; }
.bfsstat th { text-align: left; border-bottom: 1px solid #666; padding: 0em 1em; }
.bfsstat td { padding: 0em 1em; }
.bfsstat td.num { text-align: right; }
</style>
</head>
<body>
<table class='bfsstat'>
<tr>{{range .Header}}<th>{{.}}{{end}}
{{range .Rows -}}
<tr><td>{{.Board}}<td>{{.Implementation}}<td>{{.Dataset}}<td class='num'>{{.NumCPUs}}<td class='num'>{{.ChunkSize}}<td class='num'>{{.Runtime}}<td class='num'>{{.Runs}}
{{end -}}
</table>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("summary").Parse(htmlText))

// formatHTML prints the summary of ds as an HTML page.
func formatHTML(w io.Writer, ds *runset.Dataset) error {
	return htmlTemplate.Execute(w, struct {
		Header []string
		Rows   []summaryRow
	}{summaryHeader, summarize(ds)})
}
