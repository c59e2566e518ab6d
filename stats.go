package df

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StatNames are the rows of the table Describe returns, in order.
var StatNames = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// StatColumn is the name of the label column of Describe's output.
const StatColumn = "statistic"

// Describe summarizes the numeric columns of df (all of them if cols is empty). Nulls are
// skipped. std is the sample standard deviation, quantiles interpolate linearly.
func Describe(df *DF, cols ...string) (*DF, error) {
	if len(cols) == 0 {
		for h := df.head; h != nil; h = h.next {
			if isNumeric(h.col.DataType()) {
				cols = append(cols, h.col.Name())
			}
		}
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("no numeric columns to describe")
	}

	label, _ := NewCol(StatNames, DTstring, ColName(StatColumn))
	out, _ := NewDF(label)

	for _, cn := range cols {
		col := df.Column(cn)
		if col == nil {
			return nil, fmt.Errorf("column %s not found", cn)
		}

		if !isNumeric(col.DataType()) {
			return nil, fmt.Errorf("column %s is %s, not numeric", cn, col.DataType())
		}

		x := NonNullFloat(col)
		sort.Float64s(x)

		summary := MakeVector(DTfloat, len(StatNames))
		vals := summary.data.([]float64)
		vals[0] = float64(len(x))
		switch len(x) {
		case 0:
			for ind := 1; ind < len(vals); ind++ {
				summary.SetNull(ind)
			}
		default:
			mean, std := stat.MeanStdDev(x, nil)
			vals[1], vals[2] = mean, std
			if len(x) == 1 {
				summary.SetNull(2)
			}

			vals[3], vals[7] = floats.Min(x), floats.Max(x)
			for ind, p := range []float64{0.25, 0.5, 0.75} {
				vals[4+ind] = stat.Quantile(p, stat.LinInterp, x, nil)
			}
		}

		if e := out.AppendColumn(&Col{name: cn, Vector: summary}, false); e != nil {
			return nil, e
		}
	}

	return out, nil
}

// Quantile returns the p-th quantile of the non-null values of col.
func Quantile(col *Col, p float64) (float64, error) {
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("quantile %v outside [0,1]", p)
	}

	if !isNumeric(col.DataType()) {
		return 0, fmt.Errorf("column %s is %s, not numeric", col.Name(), col.DataType())
	}

	x := NonNullFloat(col)
	if len(x) == 0 {
		return 0, fmt.Errorf("column %s has no values", col.Name())
	}

	sort.Float64s(x)

	return stat.Quantile(p, stat.LinInterp, x, nil), nil
}

// LinearFit regresses y on x over the rows where both are present. It returns the
// intercept alpha and slope beta.
func LinearFit(x, y *Col) (alpha, beta float64, err error) {
	if x.Len() != y.Len() {
		return 0, 0, fmt.Errorf("columns %s and %s differ in length", x.Name(), y.Name())
	}

	xs, ys, e := pairs(x, y)
	if e != nil {
		return 0, 0, e
	}

	if len(xs) < 2 {
		return 0, 0, fmt.Errorf("need at least 2 points to fit a line, have %d", len(xs))
	}

	if floats.Min(xs) == floats.Max(xs) {
		return 0, 0, fmt.Errorf("column %s is constant, cannot fit a line", x.Name())
	}

	alpha, beta = stat.LinearRegression(xs, ys, nil, false)

	return alpha, beta, nil
}

// NonNullFloat returns the non-null, finite values of col as float64.
func NonNullFloat(col *Col) []float64 {
	x, e := col.AsFloat()
	if e != nil {
		return nil
	}

	out := make([]float64, 0, len(x))
	for ind, xv := range x {
		if col.IsNull(ind) || math.IsNaN(xv) || math.IsInf(xv, 0) {
			continue
		}

		out = append(out, xv)
	}

	return out
}

func pairs(x, y *Col) (xs, ys []float64, err error) {
	var xf, yf []float64
	if xf, err = x.AsFloat(); err != nil {
		return nil, nil, err
	}

	if yf, err = y.AsFloat(); err != nil {
		return nil, nil, err
	}

	for ind := range xf {
		if x.IsNull(ind) || y.IsNull(ind) {
			continue
		}

		xs = append(xs, xf[ind])
		ys = append(ys, yf[ind])
	}

	return xs, ys, nil
}

func isNumeric(dt DataTypes) bool {
	return dt == DTfloat || dt == DTint
}
