// Package gold merges the normalized tables into the analysis table: one row per
// municipality present in every source, with the tax burden derived from revenue and GDP.
package gold

import (
	"fmt"

	"github.com/rs/zerolog"

	d "github.com/invertedv/ipea"
	"github.com/invertedv/ipea/internal/errors"
	"github.com/invertedv/ipea/silver"
)

// FileName is the name of the merged table in the gold tier.
const FileName = "CleanData.csv"

// Columns is the column order of the merged table.
var Columns = append(append([]d.Field{}, silver.Sourced...), d.Field{Name: silver.BurdenColumn, DT: d.DTfloat})

type Engine struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Merge left joins tables, in order, on the municipality key, keeps the rows with every
// canonical column present, sorts them by key and derives the tax burden. The inputs are not
// modified. A single table is returned keyed and sorted, without the derived column.
func (g *Engine) Merge(tables []*d.DF) (*d.DF, error) {
	if len(tables) == 0 {
		return nil, errors.NewMergeError("no normalized tables", nil, nil)
	}

	var (
		keyed []*d.DF
		e     error
	)
	for ind, tbl := range tables {
		var k *d.DF
		if k, e = stringKey(tbl); e != nil {
			return nil, errors.NewMergeError(fmt.Sprintf("table %d", ind), nil, e)
		}

		keyed = append(keyed, k)
	}

	if len(keyed) == 1 {
		g.log.Warn().Msg("only one normalized table, nothing to merge")
		out := keyed[0]
		if e = out.Sort(silver.KeyColumn); e != nil {
			return nil, errors.NewMergeError("sort", nil, e)
		}

		return out, nil
	}

	acc := keyed[0]
	for _, tbl := range keyed[1:] {
		if acc, e = d.LeftJoin(acc, tbl, silver.KeyColumn); e != nil {
			return nil, errors.NewMergeError("join", nil, e)
		}
	}

	missing := absent(acc)
	if len(missing) > 0 {
		g.log.Warn().Strs("missing", missing).Msg("canonical columns not supplied by any source")
	}

	if acc, e = acc.Reindex(silver.Sourced...); e != nil {
		return nil, errors.NewMergeError("reindex", missing, e)
	}

	joined := acc.RowCount()
	acc = acc.DropNulls()
	g.log.Debug().Int("joined", joined).Int("complete", acc.RowCount()).Msg("dropped incomplete rows")

	if acc.RowCount() == 0 {
		return nil, errors.NewMergeError("no municipality has every column", missing, nil)
	}

	if e = g.coerce(acc); e != nil {
		return nil, errors.NewMergeError("numeric columns", nil, e)
	}

	if e = acc.Sort(silver.KeyColumn); e != nil {
		return nil, errors.NewMergeError("sort", nil, e)
	}

	acc = g.unique(acc)

	if acc, e = g.derive(acc); e != nil {
		return nil, e
	}

	return acc, nil
}

// stringKey returns a copy of tbl whose key column is a string.
func stringKey(tbl *d.DF) (*d.DF, error) {
	if tbl == nil {
		return nil, fmt.Errorf("nil table")
	}

	key := tbl.Column(silver.KeyColumn)
	if key == nil {
		return nil, fmt.Errorf("no %s column", silver.KeyColumn)
	}

	out := tbl.Copy()
	skey, e := key.Cast(d.DTstring)
	if e != nil {
		return nil, e
	}

	// keep the key first
	names := out.ColumnNames()
	if e = out.AppendColumn(skey, true); e != nil {
		return nil, e
	}

	return out.KeepColumns(names...)
}

func absent(tbl *d.DF) []string {
	var missing []string
	for _, f := range silver.Sourced {
		if tbl.Column(f.Name) == nil {
			missing = append(missing, f.Name)
		}
	}

	return missing
}

// coerce gives the numeric columns their canonical types. Population and HDI are best
// effort; GDP and revenue must be numbers.
func (g *Engine) coerce(tbl *d.DF) error {
	for _, f := range silver.Sourced {
		col := tbl.Column(f.Name)
		if col.DataType() == f.DT {
			continue
		}

		cast, e := col.Cast(f.DT)
		if e != nil {
			if f.Name == silver.GDPColumn || f.Name == silver.TaxColumn {
				return e
			}

			g.log.Warn().Err(e).Str("column", f.Name).Msg("cast failed, keeping column as is")
			continue
		}

		if e = replace(tbl, cast); e != nil {
			return e
		}
	}

	return nil
}

// unique keeps the first row of each key of a table sorted by key.
func (g *Engine) unique(tbl *d.DF) *d.DF {
	keys, _ := tbl.Column(silver.KeyColumn).AsString()
	indic := make([]bool, len(keys))
	dups := 0
	for row := range keys {
		indic[row] = row == 0 || keys[row] != keys[row-1]
		if !indic[row] {
			dups++
		}
	}

	if dups == 0 {
		return tbl
	}

	g.log.Warn().Int("rows", dups).Msg("dropping rows with a repeated municipality key")
	out, _ := tbl.Where(indic)

	return out
}

// derive adds tax revenue / GDP. Rows with zero GDP have no burden and are dropped.
func (g *Engine) derive(tbl *d.DF) (*d.DF, error) {
	gdpCol, taxCol := tbl.Column(silver.GDPColumn), tbl.Column(silver.TaxColumn)
	if gdpCol == nil || taxCol == nil {
		return nil, errors.NewMergeError("derived column needs GDP and revenue", absent(tbl), nil)
	}

	gdp, e := gdpCol.AsFloat()
	if e != nil {
		return nil, errors.NewMergeError("GDP is not numeric", nil, e)
	}

	indic := make([]bool, len(gdp))
	zero := 0
	for row, x := range gdp {
		indic[row] = x != 0
		if x == 0 {
			zero++
		}
	}

	if zero > 0 {
		g.log.Warn().Int("rows", zero).Msg("dropping municipalities with zero GDP")
		if tbl, e = tbl.Where(indic); e != nil {
			return nil, errors.NewMergeError("zero GDP", nil, e)
		}

		if tbl.RowCount() == 0 {
			return nil, errors.NewMergeError("every municipality has zero GDP", nil, nil)
		}

		gdp, _ = tbl.Column(silver.GDPColumn).AsFloat()
	}

	tax, e := tbl.Column(silver.TaxColumn).AsFloat()
	if e != nil {
		return nil, errors.NewMergeError("revenue is not numeric", nil, e)
	}

	burden := make([]float64, len(gdp))
	for row := range burden {
		burden[row] = tax[row] / gdp[row]
	}

	col, e := d.NewCol(burden, d.DTfloat, d.ColName(silver.BurdenColumn))
	if e != nil {
		return nil, errors.NewMergeError("derived column", nil, e)
	}

	if e = tbl.AppendColumn(col, true); e != nil {
		return nil, errors.NewMergeError("derived column", nil, e)
	}

	return tbl, nil
}

// replace swaps the column of the same name, in place.
func replace(tbl *d.DF, col *d.Col) error {
	names := tbl.ColumnNames()
	if e := tbl.AppendColumn(col, true); e != nil {
		return e
	}

	kept, e := tbl.KeepColumns(names...)
	if e != nil {
		return e
	}

	*tbl = *kept

	return nil
}
