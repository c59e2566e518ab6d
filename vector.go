package df

import (
	"fmt"
	"strings"
	"time"
)

// Vector holds the data of a column. nulls marks missing elements; a nil nulls means none are missing.
type Vector struct {
	dt DataTypes

	data  any
	nulls []bool
}

// NewVector creates a Vector of type dt from data, which may be a slice or a single value.
// The elements of data are converted to dt.
func NewVector(data any, dt DataTypes) (*Vector, error) {
	if v, ok := data.(*Vector); ok {
		if v.VectorType() == dt {
			return v, nil
		}

		return v.Coerce(dt)
	}

	var (
		v  any
		ok bool
	)
	if v, ok = toSlc(data, dt); !ok {
		return nil, fmt.Errorf("cannot make vector of type %s", dt)
	}

	return &Vector{dt: dt, data: v}, nil
}

// MakeVector returns a Vector of length n filled with zero values.
func MakeVector(dt DataTypes, n int) *Vector {
	switch dt {
	case DTfloat:
		return &Vector{dt: dt, data: make([]float64, n)}
	case DTint:
		return &Vector{dt: dt, data: make([]int, n)}
	case DTstring:
		return &Vector{dt: dt, data: make([]string, n)}
	case DTdate:
		return &Vector{dt: dt, data: make([]time.Time, n)}
	default:
		panic(fmt.Errorf("cannot make Vector with data type %s", dt))
	}
}

// NullVector returns a Vector of length n whose elements are all null.
func NullVector(dt DataTypes, n int) *Vector {
	v := MakeVector(dt, n)
	v.nulls = make([]bool, n)
	for ind := range v.nulls {
		v.nulls[ind] = true
	}

	return v
}

func (v *Vector) VectorType() DataTypes {
	return v.dt
}

func (v *Vector) Data() *Vector {
	return v
}

func (v *Vector) AsAny() any {
	return v.data
}

func (v *Vector) AsFloat() ([]float64, error) {
	switch v.VectorType() {
	case DTfloat:
		return v.data.([]float64), nil
	case DTint:
		xOut := make([]float64, v.Len())
		for ind, xx := range v.data.([]int) {
			xOut[ind] = float64(xx)
		}

		return xOut, nil
	}

	vx, e := v.Coerce(DTfloat)
	if e != nil {
		return nil, e
	}

	return vx.data.([]float64), nil
}

func (v *Vector) AsInt() ([]int, error) {
	if v.VectorType() == DTint {
		return v.data.([]int), nil
	}

	vx, e := v.Coerce(DTint)
	if e != nil {
		return nil, e
	}

	return vx.data.([]int), nil
}

func (v *Vector) AsString() ([]string, error) {
	if v.VectorType() == DTstring {
		return v.data.([]string), nil
	}

	vx, e := v.Coerce(DTstring)
	if e != nil {
		return nil, e
	}

	return vx.data.([]string), nil
}

func (v *Vector) AsDate() ([]time.Time, error) {
	if v.VectorType() == DTdate {
		return v.data.([]time.Time), nil
	}

	vx, e := v.Coerce(DTdate)
	if e != nil {
		return nil, e
	}

	return vx.data.([]time.Time), nil
}

// Element returns the value at indx, nil if it is null.
func (v *Vector) Element(indx int) any {
	if v.IsNull(indx) {
		return nil
	}

	switch x := v.data.(type) {
	case []float64:
		return x[indx]
	case []int:
		return x[indx]
	case []string:
		return x[indx]
	case []time.Time:
		return x[indx]
	}

	return nil
}

func (v *Vector) ElementFloat(indx int) (float64, error) {
	x, ok := toFloat(v.Element(indx))
	if !ok {
		return 0, fmt.Errorf("element %d is not a float", indx)
	}

	return x.(float64), nil
}

func (v *Vector) ElementString(indx int) (string, error) {
	x, ok := toString(v.Element(indx))
	if !ok {
		return "", fmt.Errorf("element %d is not a string", indx)
	}

	return x.(string), nil
}

func (v *Vector) IsNull(indx int) bool {
	return v.nulls != nil && v.nulls[indx]
}

func (v *Vector) SetNull(indx int) {
	if indx < 0 || indx >= v.Len() {
		panic(fmt.Errorf("index out of range"))
	}

	if v.nulls == nil {
		v.nulls = make([]bool, v.Len())
	}

	v.nulls[indx] = true
}

func (v *Vector) NullCount() int {
	n := 0
	for _, isNull := range v.nulls {
		if isNull {
			n++
		}
	}

	return n
}

func (v *Vector) HasNulls() bool {
	return v.NullCount() > 0
}

func (v *Vector) Len() int {
	switch x := v.data.(type) {
	case []float64:
		return len(x)
	case []int:
		return len(x)
	case []string:
		return len(x)
	case []time.Time:
		return len(x)
	}

	return 0
}

func (v *Vector) Swap(i, j int) {
	switch x := v.data.(type) {
	case []float64:
		x[i], x[j] = x[j], x[i]
	case []int:
		x[i], x[j] = x[j], x[i]
	case []string:
		x[i], x[j] = x[j], x[i]
	case []time.Time:
		x[i], x[j] = x[j], x[i]
	}

	if v.nulls != nil {
		v.nulls[i], v.nulls[j] = v.nulls[j], v.nulls[i]
	}
}

// Less compares elements i and j. Nulls sort after everything else.
func (v *Vector) Less(i, j int) bool {
	if v.IsNull(i) || v.IsNull(j) {
		return !v.IsNull(i) && v.IsNull(j)
	}

	switch x := v.data.(type) {
	case []float64:
		return x[i] < x[j]
	case []int:
		return x[i] < x[j]
	case []string:
		return strings.Compare(x[i], x[j]) < 0
	case []time.Time:
		return x[i].Before(x[j])
	}

	return false
}

func (v *Vector) Copy() *Vector {
	var data any
	switch x := v.data.(type) {
	case []float64:
		data = append([]float64{}, x...)
	case []int:
		data = append([]int{}, x...)
	case []string:
		data = append([]string{}, x...)
	case []time.Time:
		data = append([]time.Time{}, x...)
	}

	vOut := &Vector{dt: v.dt, data: data}
	if v.nulls != nil {
		vOut.nulls = append([]bool{}, v.nulls...)
	}

	return vOut
}

// Where returns the elements for which indic is true.
func (v *Vector) Where(indic []bool) *Vector {
	var rows []int
	for ind, keep := range indic {
		if keep {
			rows = append(rows, ind)
		}
	}

	return v.Take(rows)
}

// Take returns a Vector built from the rows listed. A row of -1 produces a null.
func (v *Vector) Take(rows []int) *Vector {
	vOut := &Vector{dt: v.dt}
	switch x := v.data.(type) {
	case []float64:
		vOut.data = take(x, rows)
	case []int:
		vOut.data = take(x, rows)
	case []string:
		vOut.data = take(x, rows)
	case []time.Time:
		vOut.data = take(x, rows)
	}

	for ind, row := range rows {
		if row < 0 || v.IsNull(row) {
			if vOut.nulls == nil {
				vOut.nulls = make([]bool, len(rows))
			}

			vOut.nulls[ind] = true
		}
	}

	return vOut
}

// Coerce converts the Vector to type to. Null elements stay null. It fails if any element can't be converted.
func (v *Vector) Coerce(to DataTypes) (*Vector, error) {
	if v.VectorType() == to {
		return v.Copy(), nil
	}

	vOut := MakeVector(to, v.Len())
	for ind := 0; ind < v.Len(); ind++ {
		if v.IsNull(ind) {
			vOut.SetNull(ind)
			continue
		}

		x, ok := toDataType(v.Element(ind), to)
		if !ok {
			return nil, fmt.Errorf("cannot convert %v to %s", v.Element(ind), to)
		}

		switch to {
		case DTfloat:
			vOut.data.([]float64)[ind] = x.(float64)
		case DTint:
			vOut.data.([]int)[ind] = x.(int)
		case DTstring:
			vOut.data.([]string)[ind] = x.(string)
		case DTdate:
			vOut.data.([]time.Time)[ind] = x.(time.Time)
		}
	}

	return vOut, nil
}

// Append adds values to the end of the Vector. A nil value is appended as a null.
func (v *Vector) Append(vals ...any) error {
	for _, val := range vals {
		n := v.Len()
		if val == nil {
			v.appendZero()
			v.SetNull(n)
			continue
		}

		x, ok := toDataType(val, v.dt)
		if !ok {
			return fmt.Errorf("cannot append %v to vector of type %s", val, v.dt)
		}

		switch d := v.data.(type) {
		case []float64:
			v.data = append(d, x.(float64))
		case []int:
			v.data = append(d, x.(int))
		case []string:
			v.data = append(d, x.(string))
		case []time.Time:
			v.data = append(d, x.(time.Time))
		}

		if v.nulls != nil {
			v.nulls = append(v.nulls, false)
		}
	}

	return nil
}

func (v *Vector) appendZero() {
	switch d := v.data.(type) {
	case []float64:
		v.data = append(d, 0)
	case []int:
		v.data = append(d, 0)
	case []string:
		v.data = append(d, "")
	case []time.Time:
		v.data = append(d, time.Time{})
	}

	if v.nulls != nil {
		v.nulls = append(v.nulls, false)
	}
}

func take[T any](x []T, rows []int) []T {
	xOut := make([]T, len(rows))
	for ind, row := range rows {
		if row >= 0 {
			xOut[ind] = x[row]
		}
	}

	return xOut
}
