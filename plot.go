package df

import (
	"fmt"
	"os"
	"path/filepath"

	grob "github.com/MetalBlueberry/go-plotly/graph_objects"
	"github.com/MetalBlueberry/go-plotly/offline"
)

// Plot is a plotly figure built up from DF columns.
type Plot struct {
	Fig *grob.Fig
	Lay *grob.Layout
}

type PlotOpt func(plot *Plot) error

func NewPlot(opt ...PlotOpt) (*Plot, error) {
	fig := &grob.Fig{}
	lay := &grob.Layout{}
	fig.Layout = lay
	p := &Plot{Fig: fig, Lay: lay}
	for _, o := range opt {
		if e := o(p); e != nil {
			return nil, e
		}
	}

	return p, nil
}

func PlotWidth(w float64) PlotOpt {
	return func(p *Plot) error {
		if w < 0.0 {
			return fmt.Errorf("negative width")
		}

		p.Lay.Width = w
		return nil
	}
}

func PlotHeight(h float64) PlotOpt {
	return func(p *Plot) error {
		if h < 0.0 {
			return fmt.Errorf("negative height")
		}

		p.Lay.Height = h
		return nil
	}
}

func PlotTitle(title string) PlotOpt {
	return func(p *Plot) error { p.Lay.Title = &grob.LayoutTitle{Text: title}; return nil }
}

func PlotLegend(show bool) PlotOpt {
	return func(p *Plot) error {
		p.Lay.Showlegend = grob.False
		if show {
			p.Lay.Showlegend = grob.True
		}

		return nil
	}
}

func PlotXlabel(label string) PlotOpt {
	return func(p *Plot) error {
		if p.Lay.Xaxis == nil {
			p.Lay.Xaxis = &grob.LayoutXaxis{}
		}

		p.Lay.Xaxis.Title = &grob.LayoutXaxisTitle{Text: label}
		return nil
	}
}

func PlotYlabel(label string) PlotOpt {
	return func(p *Plot) error {
		if p.Lay.Yaxis == nil {
			p.Lay.Yaxis = &grob.LayoutYaxis{}
		}

		p.Lay.Yaxis.Title = &grob.LayoutYaxisTitle{Text: label}
		return nil
	}
}

// PlotXY adds a line through the points of x and y. Rows where either is null are skipped.
func (p *Plot) PlotXY(x, y *Col, seriesName, color string) error {
	xs, ys, e := plotPairs(x, y)
	if e != nil {
		return e
	}

	tr := &grob.Scatter{Type: grob.TraceTypeScatter, Name: seriesName, X: xs, Y: ys,
		Mode: grob.ScatterModeLines, Line: &grob.ScatterLine{Color: color}}

	p.Fig.AddTraces(tr)

	return nil
}

// PlotScatter adds the points of x and y as markers.
func (p *Plot) PlotScatter(x, y *Col, seriesName, color string) error {
	xs, ys, e := plotPairs(x, y)
	if e != nil {
		return e
	}

	tr := &grob.Scatter{Type: grob.TraceTypeScatter, Name: seriesName, X: xs, Y: ys,
		Mode: grob.ScatterModeMarkers, Marker: &grob.ScatterMarker{Color: color}}

	p.Fig.AddTraces(tr)

	return nil
}

// PlotHistogram adds a histogram of the non-null values of x with at most bins bins.
func (p *Plot) PlotHistogram(x *Col, bins int, seriesName, color string) error {
	if !isNumeric(x.DataType()) {
		return fmt.Errorf("histograms require numeric data, %s is %s", x.Name(), x.DataType())
	}

	if bins <= 0 {
		return fmt.Errorf("bins must be positive, got %d", bins)
	}

	xs := NonNullFloat(x)
	if len(xs) == 0 {
		return fmt.Errorf("column %s has no values to plot", x.Name())
	}

	tr := &grob.Histogram{Type: grob.TraceTypeHistogram, Name: seriesName, X: xs, Nbinsx: int64(bins),
		Marker: &grob.HistogramMarker{Color: color}}

	p.Fig.AddTraces(tr)

	return nil
}

// Traces is the number of series on the plot.
func (p *Plot) Traces() int {
	return len(p.Fig.Data)
}

// Save writes the plot as a self-contained HTML page.
func (p *Plot) Save(fileName string) error {
	if p.Traces() == 0 {
		return fmt.Errorf("nothing to plot")
	}

	if e := os.MkdirAll(filepath.Dir(fileName), 0o755); e != nil {
		return e
	}

	offline.ToHtml(p.Fig, fileName)

	if _, e := os.Stat(fileName); e != nil {
		return fmt.Errorf("plot %s not written: %w", fileName, e)
	}

	return nil
}

// *********** Helpers ***********

func plotPairs(x, y *Col) (xs, ys []float64, err error) {
	if !isNumeric(x.DataType()) || !isNumeric(y.DataType()) {
		return nil, nil, fmt.Errorf("xy plots require numeric data")
	}

	if x.Len() != y.Len() {
		return nil, nil, fmt.Errorf("columns %s and %s differ in length", x.Name(), y.Name())
	}

	return pairs(x, y)
}
