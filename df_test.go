package df

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeDF(t *testing.T) *DF {
	t.Helper()

	k, e := NewCol([]string{"c", "a", "b"}, DTstring, ColName("k"))
	assert.Nil(t, e)
	x, e := NewCol([]float64{3, 1, 2}, DTfloat, ColName("x"), ColNulls(2))
	assert.Nil(t, e)
	n, e := NewCol([]int{30, 10, 20}, DTint, ColName("n"))
	assert.Nil(t, e)

	df, e := NewDF(k, x, n)
	assert.Nil(t, e)

	return df
}

func TestNewDF(t *testing.T) {
	df := makeDF(t)
	assert.Equal(t, 3, df.RowCount())
	assert.Equal(t, 3, df.ColumnCount())
	assert.Equal(t, []string{"k", "x", "n"}, df.ColumnNames())
	assert.True(t, df.HasColumns("k", "n"))
	assert.False(t, df.HasColumns("k", "z"))
	assert.Nil(t, df.Column("z"))

	_, e := NewDF()
	assert.NotNil(t, e)

	short, _ := NewCol([]int{1}, DTint, ColName("short"))
	assert.NotNil(t, df.AppendColumn(short, false))

	dup, _ := NewCol([]int{1, 2, 3}, DTint, ColName("n"))
	assert.NotNil(t, df.AppendColumn(dup, false))
	assert.Nil(t, df.AppendColumn(dup, true))
	assert.Equal(t, []string{"k", "x", "n"}, df.ColumnNames())
	assert.Equal(t, 1, df.Column("n").Element(0))
}

func TestColumnNames(t *testing.T) {
	names := []string{"PIB 2010 (R$)", "Município", "Carga Tributária Municipal 2010"}
	for _, name := range names {
		c, e := NewCol([]float64{1}, DTfloat, ColName(name))
		assert.Nil(t, e)
		assert.Equal(t, name, c.Name())
	}

	for _, name := range []string{"", "  ", "a\nb"} {
		_, e := NewCol([]float64{1}, DTfloat, ColName(name))
		assert.NotNil(t, e, name)
	}
}

func TestDropRename(t *testing.T) {
	df := makeDF(t)
	assert.Nil(t, df.DropColumns("x"))
	assert.Equal(t, []string{"k", "n"}, df.ColumnNames())
	assert.NotNil(t, df.DropColumns("x"))

	assert.Nil(t, df.Rename("n", "count"))
	assert.NotNil(t, df.Rename("count", "k"))
	assert.Nil(t, df.DropColumns("k"))
	assert.Equal(t, []string{"count"}, df.ColumnNames())
	assert.NotNil(t, df.DropColumns("count"))
}

func TestKeepReindex(t *testing.T) {
	df := makeDF(t)
	kept, e := df.KeepColumns("n", "k")
	assert.Nil(t, e)
	assert.Equal(t, []string{"n", "k"}, kept.ColumnNames())

	_, e = df.KeepColumns("nope")
	assert.NotNil(t, e)

	re, e := df.Reindex(Field{"k", DTstring}, Field{"missing", DTfloat}, Field{"x", DTfloat})
	assert.Nil(t, e)
	assert.Equal(t, []string{"k", "missing", "x"}, re.ColumnNames())
	assert.Equal(t, 3, re.Column("missing").NullCount())
	assert.Equal(t, DTfloat, re.Column("missing").DataType())

	// reindex copies
	re.Column("k").Swap(0, 1)
	assert.Equal(t, "c", df.Column("k").Element(0))
}

func TestWhereTakeDropNulls(t *testing.T) {
	df := makeDF(t)
	w, e := df.Where([]bool{true, false, true})
	assert.Nil(t, e)
	assert.Equal(t, 2, w.RowCount())
	assert.Equal(t, []any{"b", nil, 20}, w.Row(1))

	_, e = df.Where([]bool{true})
	assert.NotNil(t, e)

	f, e := df.Filter(func(row int) bool { return df.Column("n").Element(row).(int) > 10 })
	assert.Nil(t, e)
	assert.Equal(t, 2, f.RowCount())

	tk := df.Take([]int{2, -1})
	assert.Equal(t, []any{"b", nil, 20}, tk.Row(0))
	assert.Equal(t, []any{nil, nil, nil}, tk.Row(1))

	dn := df.DropNulls()
	assert.Equal(t, 2, dn.RowCount())
	k, _ := dn.Column("k").AsString()
	assert.Equal(t, []string{"c", "a"}, k)

	none := tk.Take([]int{1}).DropNulls()
	assert.Equal(t, 0, none.RowCount())
	assert.Equal(t, 3, none.ColumnCount())
}

func TestSort(t *testing.T) {
	df := makeDF(t)
	assert.Nil(t, df.Sort("k"))
	k, _ := df.Column("k").AsString()
	assert.Equal(t, []string{"a", "b", "c"}, k)
	assert.Equal(t, []any{"b", nil, 20}, df.Row(1))

	// nulls go last
	assert.Nil(t, df.Sort("x"))
	assert.Nil(t, df.Column("x").Element(2))
	assert.Equal(t, "b", df.Column("k").Element(2))

	assert.NotNil(t, df.Sort("nope"))

	// stable
	g, _ := NewCol([]string{"1", "1", "0", "1"}, DTstring, ColName("g"))
	o, _ := NewCol([]int{0, 1, 2, 3}, DTint, ColName("o"))
	st, _ := NewDF(g, o)
	assert.Nil(t, st.Sort("g"))
	oi, _ := st.Column("o").AsInt()
	assert.Equal(t, []int{2, 0, 1, 3}, oi)
}

func TestCast(t *testing.T) {
	c, _ := NewCol([]string{"1100015", "1234.0", ""}, DTstring, ColName("code"), ColNulls(2))
	ci, e := c.Cast(DTint)
	assert.Nil(t, e)
	assert.Equal(t, 1100015, ci.Element(0))
	assert.Equal(t, 1234, ci.Element(1))
	assert.Nil(t, ci.Element(2))

	bad, _ := NewCol([]string{"x"}, DTstring, ColName("bad"))
	_, e = bad.Cast(DTfloat)
	assert.NotNil(t, e)

	fl, _ := NewCol([]float64{1100015, 0.5}, DTfloat, ColName("f"))
	fs, e := fl.Cast(DTstring)
	assert.Nil(t, e)
	s, _ := fs.AsString()
	assert.Equal(t, []string{"1100015", "0.5"}, s)

	dt, _ := NewCol([]string{"2010-01-01"}, DTstring, ColName("d"))
	dd, e := dt.Cast(DTdate)
	assert.Nil(t, e)
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), dd.Element(0))
}

func TestAppend(t *testing.T) {
	v := MakeVector(DTfloat, 0)
	assert.Nil(t, v.Append(1.5, nil, "2"))
	assert.Equal(t, 3, v.Len())
	assert.True(t, v.IsNull(1))
	assert.Equal(t, 2.0, v.Element(2))
	assert.NotNil(t, v.Append("abc"))
}

func TestBestType(t *testing.T) {
	tests := []struct {
		in  []string
		out DataTypes
	}{
		{[]string{"1", "", "2"}, DTint},
		{[]string{"1", "2.5"}, DTfloat},
		{[]string{"2010-01-01", "2011-01-01"}, DTdate},
		{[]string{"Porto Velho", "1"}, DTstring},
		{[]string{""}, DTstring},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.out, bestType(tt.in), tt.in)
	}
}

func TestDTFromString(t *testing.T) {
	for dt := DTstring; dt <= MaxDT; dt++ {
		assert.Equal(t, dt, DTFromString(dt.String()))
	}

	assert.Equal(t, DTunknown, DTFromString("DTbool"))
}

func TestString(t *testing.T) {
	df := makeDF(t)
	s := df.String()
	assert.Contains(t, s, "rows: 3")
	assert.Contains(t, s, nullString)
}
