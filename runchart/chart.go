// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runchart draws strong-scaling charts from a run dataset.
//
// Each chart covers one board and one input graph. It has one panel
// per chunk size, and each panel has one line per implementation
// plotting the mean runtime of repeat runs against the number of
// CPUs.
package runchart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Sasso0101/thesis/runset"
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// meanRuntime is the column ggstat.AggMean produces for the runtime.
const meanRuntime = "mean " + runset.ColRuntime

// Options control chart layout.
type Options struct {
	// Columns is the number of panels per row. If 0, panels are laid
	// out in a roughly square grid.
	Columns int

	// PanelWidth and PanelHeight are the size of one panel. If 0,
	// 12cm by 9cm is used.
	PanelWidth, PanelHeight vg.Length

	// DPI is the output resolution. If 0, 150 is used.
	DPI int
}

// A Series is one implementation's line in a panel.
type Series struct {
	Implementation string
	NumCPUs        []int
	MeanRuntime    []float64
}

// A Panel is the data for one chunk size.
type Panel struct {
	ChunkSize int
	Series    []Series
}

// A Chart is the data for one board and input graph.
type Chart struct {
	Board   string
	Dataset string
	Panels  []Panel
}

type chartKey struct {
	board, dataset string
}

// Aggregate computes the chart data for ds: the mean runtime of each
// configuration, split by board, input graph, chunk size and
// implementation. Charts, panels and series are sorted, and points
// within a series are ordered by CPU count.
func Aggregate(ds *runset.Dataset) []*Chart {
	if ds.Len() == 0 {
		return nil
	}
	g := table.GroupBy(ds.GGTable(), runset.ColBoard, runset.ColDataset, runset.ColChunkSize, runset.ColImplementation)
	g = ggstat.Agg(runset.ColNumCPUs)(ggstat.AggMean(runset.ColRuntime)).F(g)
	g = table.SortBy(g, runset.ColNumCPUs)

	charts := make(map[chartKey]*Chart)
	panels := make(map[chartKey]map[int]*Panel)
	for _, gid := range g.Tables() {
		impl := gid.Label().(string)
		cs := gid.Parent().Label().(int)
		dataset := gid.Parent().Parent().Label().(string)
		board := gid.Parent().Parent().Parent().Label().(string)

		key := chartKey{board, dataset}
		c := charts[key]
		if c == nil {
			c = &Chart{Board: board, Dataset: dataset}
			charts[key] = c
			panels[key] = make(map[int]*Panel)
		}
		p := panels[key][cs]
		if p == nil {
			p = &Panel{ChunkSize: cs}
			panels[key][cs] = p
		}
		t := g.Table(gid)
		p.Series = append(p.Series, Series{
			Implementation: impl,
			NumCPUs:        t.MustColumn(runset.ColNumCPUs).([]int),
			MeanRuntime:    t.MustColumn(meanRuntime).([]float64),
		})
	}

	out := make([]*Chart, 0, len(charts))
	for key, c := range charts {
		for _, p := range panels[key] {
			sort.Slice(p.Series, func(i, j int) bool {
				return p.Series[i].Implementation < p.Series[j].Implementation
			})
			c.Panels = append(c.Panels, *p)
		}
		sort.Slice(c.Panels, func(i, j int) bool { return c.Panels[i].ChunkSize < c.Panels[j].ChunkSize })
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Board != out[j].Board {
			return out[i].Board < out[j].Board
		}
		return out[i].Dataset < out[j].Dataset
	})
	return out
}

// FileName returns the base name of the PNG file for c.
func (c *Chart) FileName() string {
	clean := strings.NewReplacer("/", "-", `\`, "-", " ", "_", ":", "-")
	return clean.Replace(c.Board) + "_" + clean.Replace(c.Dataset) + ".png"
}

func panelTitle(cs int) string {
	if cs == 0 {
		return "no chunk size"
	}
	return fmt.Sprintf("chunk size %d", cs)
}

// colors assigns each implementation in cs a color, consistently
// across panels.
func colors(c *Chart) map[string]color.Color {
	var impls []string
	seen := make(map[string]bool)
	for _, p := range c.Panels {
		for _, s := range p.Series {
			if !seen[s.Implementation] {
				seen[s.Implementation] = true
				impls = append(impls, s.Implementation)
			}
		}
	}
	sort.Strings(impls)
	out := make(map[string]color.Color, len(impls))
	for i, impl := range impls {
		out[impl] = plotutil.Color(i)
	}
	return out
}

func (c *Chart) plots() ([]*plot.Plot, error) {
	clr := colors(c)
	var pls []*plot.Plot
	for _, p := range c.Panels {
		pl := plot.New()
		pl.Title.Text = panelTitle(p.ChunkSize)
		pl.X.Label.Text = "CPUs"
		pl.Y.Label.Text = "mean runtime (s)"
		pl.Y.Min = 0
		pl.Legend.Top = true

		grid := plotter.NewGrid()
		grid.Vertical.Color = nil
		pl.Add(grid)

		for _, s := range p.Series {
			xys := make(plotter.XYs, len(s.NumCPUs))
			for i := range s.NumCPUs {
				xys[i].X = float64(s.NumCPUs[i])
				xys[i].Y = s.MeanRuntime[i]
			}
			line, points, err := plotter.NewLinePoints(xys)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s: %s", c.Board, c.Dataset, s.Implementation)
			}
			line.Color = clr[s.Implementation]
			points.Color = clr[s.Implementation]
			pl.Add(line, points)
			pl.Legend.Add(s.Implementation, line, points)
		}
		pls = append(pls, pl)
	}
	return pls, nil
}

// Draw renders c as a PNG into dir and returns the path written.
func (c *Chart) Draw(dir string, opts *Options) (string, error) {
	if opts == nil {
		opts = &Options{}
	}
	pls, err := c.plots()
	if err != nil {
		return "", err
	}
	cols := opts.Columns
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(len(pls)))))
	}
	rows := (len(pls) + cols - 1) / cols
	width, height := opts.PanelWidth, opts.PanelHeight
	if width == 0 {
		width = 12 * vg.Centimeter
	}
	if height == 0 {
		height = 9 * vg.Centimeter
	}
	dpi := opts.DPI
	if dpi == 0 {
		dpi = 150
	}

	grid := make([][]*plot.Plot, rows)
	for i := range grid {
		grid[i] = make([]*plot.Plot, cols)
	}
	for i, pl := range pls {
		grid[i/cols][i%cols] = pl
	}

	title := vg.Length(0)
	if rows > 0 {
		title = 1 * vg.Centimeter
	}
	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(cols)*width, vg.Length(rows)*height+title),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(color.White))
	dc := draw.New(img)

	body := dc
	body.Max.Y -= title
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: 2 * vg.Millimeter, PadBottom: 2 * vg.Millimeter,
		PadLeft: 2 * vg.Millimeter, PadRight: 2 * vg.Millimeter,
	}
	canvases := plot.Align(grid, tiles, body)
	for i := range grid {
		for j, pl := range grid[i] {
			if pl != nil {
				pl.Draw(canvases[i][j])
			}
		}
	}

	heading := draw.TextStyle{
		Color:   color.Black,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
		XAlign:  draw.XCenter,
		YAlign:  draw.YTop,
	}
	heading.Font.Size = vg.Points(14)
	dc.FillText(heading, vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Millimeter}, c.Board+" / "+c.Dataset)

	if err := os.MkdirAll(dir, 0o777); err != nil {
		return "", err
	}
	file := filepath.Join(dir, c.FileName())
	f, err := os.Create(file)
	if err != nil {
		return "", err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "writing %s", file)
	}
	return file, f.Close()
}

// Write draws one chart per board and input graph in ds into dir and
// returns the files written.
func Write(ds *runset.Dataset, dir string, opts *Options) ([]string, error) {
	var files []string
	for _, c := range Aggregate(ds) {
		file, err := c.Draw(dir, opts)
		if err != nil {
			return files, err
		}
		files = append(files, file)
	}
	return files, nil
}
