// Package report runs the descriptive analysis of the merged table: a summary statistics
// table, histograms of the indicators and the scatter of HDI against the tax burden.
package report

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/silver"
	"github.com/invertedv/ipea/store"
)

// DescribeFile is the name of the summary statistics table in the analysis tier.
const DescribeFile = "Descriptive Statistics Initial Analysis.csv"

const (
	bins   = 100
	color  = "#440154"
	accent = "red"
)

// Chart is one histogram of the analysis.
type Chart struct {
	Column string
	Title  string
	// Trim drops the values above this quantile when positive
	Trim float64
	File string
}

// Charts are the histograms drawn, in order.
var Charts = []Chart{
	{Column: silver.HDIColumn, Title: "Distribution of IDHM 2010", File: "Histogram IDHM 2010.html"},
	{Column: silver.BurdenColumn, Title: "Distribution of Carga Tributária Municipal 2010",
		File: "Histogram Carga Tributaria Municipal 2010.html"},
	{Column: silver.GDPColumn, Title: "Distribution of PIB 2010 (R$) - Adjusted for Outliers", Trim: 0.95,
		File: "Histogram PIB 2010 adjusted.html"},
	{Column: silver.TaxColumn, Title: "Distribution of Receitas Correntes 2010 (R$) - Adjusted for Outliers", Trim: 0.95,
		File: "Histogram Receitas Correntes 2010 adjusted.html"},
}

// ScatterFile is the name of the HDI against tax burden plot.
const ScatterFile = "Dispersao IDHM x Carga Tributaria.html"

// Analyzer writes the analysis of a merged table. Plots go to Dir, the statistics table
// through the store.
type Analyzer struct {
	Dir string

	store store.Store
	out   io.Writer
	log   zerolog.Logger
}

type AnalyzerOpt func(*Analyzer)

// WithOutput prints the statistics table to w.
func WithOutput(w io.Writer) AnalyzerOpt {
	return func(a *Analyzer) { a.out = w }
}

func WithLogger(log zerolog.Logger) AnalyzerOpt {
	return func(a *Analyzer) { a.log = log }
}

func New(dir string, st store.Store, opts ...AnalyzerOpt) *Analyzer {
	a := &Analyzer{Dir: dir, store: st, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Result lists what Run wrote.
type Result struct {
	Summary *d.DF
	Plots   []string
}

// Run describes tbl and draws the plots. tbl is not modified.
func (a *Analyzer) Run(ctx context.Context, tbl *d.DF) (*Result, error) {
	summary, e := d.Describe(tbl)
	if e != nil {
		return nil, fmt.Errorf("describe: %w", e)
	}

	if a.store != nil {
		if e = a.store.Save(ctx, summary, store.Analysis, DescribeFile); e != nil {
			return nil, fmt.Errorf("save %s: %w", DescribeFile, e)
		}
	}

	if a.out != nil {
		if e = Print(a.out, summary); e != nil {
			return nil, e
		}
	}

	res := &Result{Summary: summary}

	scatter := filepath.Join(a.Dir, ScatterFile)
	if e = Scatter(tbl, silver.BurdenColumn, silver.HDIColumn, scatter); e != nil {
		return nil, e
	}
	res.Plots = append(res.Plots, scatter)

	for _, c := range Charts {
		fileName := filepath.Join(a.Dir, c.File)
		if e = Histogram(tbl, c, fileName); e != nil {
			return nil, e
		}

		res.Plots = append(res.Plots, fileName)
	}

	a.log.Info().Int("plots", len(res.Plots)).Str("dir", a.Dir).Msg("analysis written")

	return res, nil
}

// Histogram draws the histogram c of tbl into fileName.
func Histogram(tbl *d.DF, c Chart, fileName string) error {
	col := tbl.Column(c.Column)
	if col == nil {
		return fmt.Errorf("histogram: column %s not found", c.Column)
	}

	if c.Trim > 0 {
		cut, e := d.Quantile(col, c.Trim)
		if e != nil {
			return fmt.Errorf("histogram %s: %w", c.Column, e)
		}

		x, _ := col.AsFloat()
		kept, e := tbl.Filter(func(row int) bool { return !col.IsNull(row) && x[row] <= cut })
		if e != nil {
			return e
		}

		col = kept.Column(c.Column)
	}

	p, e := d.NewPlot(d.PlotTitle(c.Title), d.PlotXlabel(c.Column), d.PlotYlabel("Frequency"),
		d.PlotWidth(1000), d.PlotHeight(600), d.PlotLegend(false))
	if e != nil {
		return e
	}

	if e = p.PlotHistogram(col, bins, c.Column, color); e != nil {
		return e
	}

	return p.Save(fileName)
}

// Scatter plots y against x with the least squares line and writes it to fileName.
func Scatter(tbl *d.DF, x, y, fileName string) error {
	xc, yc := tbl.Column(x), tbl.Column(y)
	if xc == nil || yc == nil {
		return fmt.Errorf("scatter: need columns %s and %s", x, y)
	}

	p, e := d.NewPlot(d.PlotTitle(fmt.Sprintf("Scatter Plot of %s vs %s", y, x)), d.PlotXlabel(x), d.PlotYlabel(y),
		d.PlotWidth(1000), d.PlotHeight(600), d.PlotLegend(true))
	if e != nil {
		return e
	}

	if e = p.PlotScatter(xc, yc, "municipalities", color); e != nil {
		return e
	}

	alpha, beta, e := d.LinearFit(xc, yc)
	if e != nil {
		return fmt.Errorf("scatter fit: %w", e)
	}

	xs := d.NonNullFloat(xc)
	ends := []float64{floats.Min(xs), floats.Max(xs)}
	lx, _ := d.NewCol(ends, d.DTfloat, d.ColName("x"))
	ly, _ := d.NewCol([]float64{alpha + beta*ends[0], alpha + beta*ends[1]}, d.DTfloat, d.ColName("fit"))
	if e = p.PlotXY(lx, ly, fmt.Sprintf("fit: %.4f + %.4f x", alpha, beta), accent); e != nil {
		return e
	}

	return p.Save(fileName)
}

// Print renders tbl as a text table.
func Print(w io.Writer, tbl *d.DF) error {
	align := make([]tw.Align, tbl.ColumnCount())
	for ind := range align {
		align[ind] = tw.AlignRight
	}
	align[0] = tw.AlignLeft

	config := tablewriter.Config{}
	config.Header.Alignment = tw.CellAlignment{PerColumn: align}
	config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))

	var header []any
	for _, nm := range tbl.ColumnNames() {
		header = append(header, nm)
	}
	table.Header(header...)

	for row := 0; row < tbl.RowCount(); row++ {
		var cells []any
		for ind, v := range tbl.Row(row) {
			switch {
			case v == nil:
				cells = append(cells, "")
			case ind > 0:
				cells = append(cells, fmt.Sprintf("%.6g", v))
			default:
				cells = append(cells, fmt.Sprint(v))
			}
		}

		if e := table.Append(cells...); e != nil {
			return e
		}
	}

	return table.Render()
}
