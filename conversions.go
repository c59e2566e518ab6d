package df

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var dateFormats = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05",
	"20060102", "1/2/2006", "01/02/2006", "Jan 2, 2006", "January 2, 2006", "Jan 2 2006", "January 2 2006"}

// *********** Conversions ***********

func toFloat(x any) (any, bool) {
	if f, ok := x.(float64); ok {
		return f, true
	}

	if s, ok := x.(string); ok {
		if f, e := strconv.ParseFloat(strings.TrimSpace(s), 64); e == nil {
			return f, true
		}

		return nil, false
	}

	if x == nil {
		return nil, false
	}

	xv := reflect.ValueOf(x)
	if xv.CanFloat() {
		return xv.Float(), true
	}

	if xv.CanInt() {
		return float64(xv.Int()), true
	}

	if xv.CanUint() {
		return float64(xv.Uint()), true
	}

	return nil, false
}

func toInt(x any) (any, bool) {
	if i, ok := x.(int); ok {
		return i, true
	}

	if s, ok := x.(string); ok {
		s = strings.TrimSpace(s)
		if i, e := strconv.ParseInt(s, 10, 64); e == nil {
			return int(i), true
		}

		// "1234.0" is an int written by a float formatter
		if f, e := strconv.ParseFloat(s, 64); e == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int(f), true
		}

		return nil, false
	}

	if x == nil {
		return nil, false
	}

	xv := reflect.ValueOf(x)
	if xv.CanInt() {
		return int(xv.Int()), true
	}

	if xv.CanUint() {
		return int(xv.Uint()), true
	}

	if xv.CanFloat() {
		f := xv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}

		return int(f), true
	}

	return nil, false
}

func toString(x any) (any, bool) {
	switch v := x.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case time.Time:
		return v.Format("2006-01-02"), true
	case bool:
		return strconv.FormatBool(v), true
	case nil:
		return nil, false
	}

	xv := reflect.ValueOf(x)
	if xv.CanInt() {
		return strconv.FormatInt(xv.Int(), 10), true
	}

	if xv.CanUint() {
		return strconv.FormatUint(xv.Uint(), 10), true
	}

	if xv.CanFloat() {
		return strconv.FormatFloat(xv.Float(), 'f', -1, 64), true
	}

	return nil, false
}

func toDate(x any) (any, bool) {
	if d, ok := x.(time.Time); ok {
		return d, true
	}

	if d, ok := x.(string); ok {
		d = strings.TrimSpace(strings.ReplaceAll(d, "'", ""))
		for _, fmtx := range dateFormats {
			if dt, e := time.Parse(fmtx, d); e == nil {
				return dt, true
			}
		}

		return nil, false
	}

	if x == nil {
		return nil, false
	}

	xv := reflect.ValueOf(x)
	if xv.CanInt() {
		return toDate(fmt.Sprintf("%d", xv.Int()))
	}

	if xv.CanUint() {
		return toDate(fmt.Sprintf("%d", xv.Uint()))
	}

	return nil, false
}

func toDataType(x any, dt DataTypes) (any, bool) {
	switch dt {
	case DTfloat:
		return toFloat(x)
	case DTint:
		return toInt(x)
	case DTdate:
		return toDate(x)
	case DTstring:
		return toString(x)
	}

	return nil, false
}

// bestType finds the narrowest type that every non-empty string in xs converts to.
// Order of preference: DTint, DTfloat, DTdate, DTstring.
func bestType(xs []string) DataTypes {
	for _, dt := range []DataTypes{DTint, DTfloat, DTdate} {
		ok, seen := true, false
		for _, x := range xs {
			if x == "" {
				continue
			}

			seen = true
			if _, ok = toDataType(x, dt); !ok {
				break
			}
		}

		if ok && seen {
			return dt
		}
	}

	return DTstring
}

// WhatAmI returns the DataTypes of val, which may be a value or a slice.
func WhatAmI(val any) DataTypes {
	switch val.(type) {
	case float64, []float64:
		return DTfloat
	case int, []int:
		return DTint
	case string, []string:
		return DTstring
	case time.Time, []time.Time:
		return DTdate
	default:
		return DTunknown
	}
}

func toSlc(xIn any, target DataTypes) (any, bool) {
	typSlc := []reflect.Type{reflect.TypeOf([]float64{}), reflect.TypeOf([]int{}), reflect.TypeOf([]string{""}), reflect.TypeOf([]time.Time{})}
	toFns := []func(a any) (any, bool){toFloat, toInt, toString, toDate}

	var indx int
	switch target {
	case DTfloat:
		indx = 0
	case DTint:
		indx = 1
	case DTstring:
		indx = 2
	case DTdate:
		indx = 3
	default:
		return nil, false
	}

	outType := typSlc[indx]
	if xIn == nil {
		return reflect.MakeSlice(outType, 0, 0).Interface(), true
	}

	x := reflect.ValueOf(xIn)

	// nothing to do
	if x.Type() == outType {
		return xIn, true
	}

	toFn := toFns[indx]
	if x.Kind() == reflect.Slice {
		xOut := reflect.MakeSlice(outType, x.Len(), x.Len())
		for ind := 0; ind < x.Len(); ind++ {
			var (
				val any
				ok  bool
			)

			if val, ok = toFn(x.Index(ind).Interface()); !ok {
				return nil, false
			}

			xOut.Index(ind).Set(reflect.ValueOf(val))
		}

		return xOut.Interface(), true
	}

	// input is not a slice:
	if val, ok := toFn(xIn); ok {
		xOut := reflect.MakeSlice(outType, 1, 1)
		xOut.Index(0).Set(reflect.ValueOf(val))
		return xOut.Interface(), true
	}

	return nil, false
}
