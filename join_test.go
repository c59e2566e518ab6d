package df

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strCol(t *testing.T, name string, vals ...string) *Col {
	t.Helper()
	c, e := NewCol(vals, DTstring, ColName(name))
	assert.Nil(t, e)

	return c
}

func fltCol(t *testing.T, name string, vals ...float64) *Col {
	t.Helper()
	c, e := NewCol(vals, DTfloat, ColName(name))
	assert.Nil(t, e)

	return c
}

func TestLeftJoin(t *testing.T) {
	left, _ := NewDF(strCol(t, "key", "1", "2", "3"), fltCol(t, "a", 10, 20, 30))
	right, _ := NewDF(strCol(t, "key", "3", "1", "1"), fltCol(t, "b", 300, 100, 101))

	out, e := LeftJoin(left, right, "key")
	assert.Nil(t, e)
	assert.Equal(t, []string{"key", "a", "b"}, out.ColumnNames())
	assert.Equal(t, 4, out.RowCount())

	assert.Equal(t, []any{"1", 10.0, 100.0}, out.Row(0))
	assert.Equal(t, []any{"1", 10.0, 101.0}, out.Row(1))
	assert.Equal(t, []any{"2", 20.0, nil}, out.Row(2))
	assert.Equal(t, []any{"3", 30.0, 300.0}, out.Row(3))
}

func TestLeftJoinClash(t *testing.T) {
	left, _ := NewDF(strCol(t, "key", "1"), fltCol(t, "DAY", 1))
	right, _ := NewDF(strCol(t, "key", "1"), fltCol(t, "DAY", 2))

	out, e := LeftJoin(left, right, "key")
	assert.Nil(t, e)
	assert.Equal(t, []string{"key", "DAY" + LeftSuffix, "DAY" + RightSuffix}, out.ColumnNames())
}

func TestLeftJoinNullKeys(t *testing.T) {
	lk, _ := NewCol([]string{"1", ""}, DTstring, ColName("key"), ColNulls(1))
	rk, _ := NewCol([]string{"", "1"}, DTstring, ColName("key"), ColNulls(0))
	left, _ := NewDF(lk)
	right, _ := NewDF(rk, fltCol(t, "b", 9, 1))

	out, e := LeftJoin(left, right, "key")
	assert.Nil(t, e)
	assert.Equal(t, 2, out.RowCount())
	assert.Equal(t, []any{"1", 1.0}, out.Row(0))
	assert.Equal(t, []any{nil, nil}, out.Row(1))
}

func TestLeftJoinErrors(t *testing.T) {
	left, _ := NewDF(strCol(t, "key", "1"))
	right, _ := NewDF(strCol(t, "other", "1"))
	_, e := LeftJoin(left, right, "key")
	assert.NotNil(t, e)

	_, e = LeftJoin(right, left, "key")
	assert.NotNil(t, e)

	ik, _ := NewCol([]int{1}, DTint, ColName("key"))
	intKey, _ := NewDF(ik)
	_, e = LeftJoin(left, intKey, "key")
	assert.NotNil(t, e)
}
