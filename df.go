package df

import (
	"fmt"
	"sort"
)

// DF is an in-memory table: an ordered list of uniquely named columns of equal length.
type DF struct {
	head *columnList

	by []*Col
}

type columnList struct {
	col *Col

	prior *columnList
	next  *columnList
}

func NewDF(cols ...*Col) (*DF, error) {
	if cols == nil {
		return nil, fmt.Errorf("no columns in NewDF")
	}

	df := &DF{}
	for _, col := range cols {
		if e := df.AppendColumn(col, false); e != nil {
			return nil, e
		}
	}

	return df, nil
}

///////////// DF methods

func (df *DF) RowCount() int {
	if df.head == nil {
		return 0
	}

	return df.head.col.Len()
}

func (df *DF) ColumnCount() int {
	cols := 0
	for c := df.head; c != nil; c = c.next {
		cols++
	}

	return cols
}

func (df *DF) ColumnNames() []string {
	var names []string

	for h := df.head; h != nil; h = h.next {
		names = append(names, h.col.Name())
	}

	return names
}

// Column returns the column colName, nil if there isn't one.
func (df *DF) Column(colName string) *Col {
	if node := df.node(colName); node != nil {
		return node.col
	}

	return nil
}

func (df *DF) HasColumns(colNames ...string) bool {
	for _, cn := range colNames {
		if df.Column(cn) == nil {
			return false
		}
	}

	return true
}

// AppendColumn adds col to the end of df. If replace is true, an existing column with the same
// name is dropped first.
func (df *DF) AppendColumn(col *Col, replace bool) error {
	if col == nil {
		return fmt.Errorf("nil column in AppendColumn")
	}

	if e := validName(col.Name()); e != nil {
		return e
	}

	if df.Column(col.Name()) != nil {
		if !replace {
			return fmt.Errorf("duplicate column name: %s", col.Name())
		}

		if df.ColumnCount() == 1 {
			df.head = &columnList{col: col}
			return nil
		}

		if e := df.DropColumns(col.Name()); e != nil {
			return e
		}
	}

	if df.head == nil {
		df.head = &columnList{col: col}
		return nil
	}

	if col.Len() != df.RowCount() {
		return fmt.Errorf("length mismatch: df - %d, append col %s - %d", df.RowCount(), col.Name(), col.Len())
	}

	var tail *columnList
	for tail = df.head; tail.next != nil; tail = tail.next {
	}

	tail.next = &columnList{
		col:   col,
		prior: tail,
		next:  nil,
	}

	return nil
}

func (df *DF) node(colName string) *columnList {
	for h := df.head; h != nil; h = h.next {
		if h.col.Name() == colName {
			return h
		}
	}

	return nil
}

func (df *DF) DropColumns(colNames ...string) error {
	for _, cName := range colNames {
		node := df.node(cName)
		if node == nil {
			return fmt.Errorf("column %s not found", cName)
		}

		if node == df.head {
			if df.head.next == nil {
				return fmt.Errorf("no columns left")
			}

			df.head = df.head.next
			df.head.prior = nil
			continue
		}

		node.prior.next = node.next
		if node.next != nil {
			node.next.prior = node.prior
		}
	}

	return nil
}

// KeepColumns returns a new DF with the columns listed, in that order. The columns are shared, not copied.
func (df *DF) KeepColumns(colNames ...string) (*DF, error) {
	var cols []*Col
	for _, cn := range colNames {
		col := df.Column(cn)
		if col == nil {
			return nil, fmt.Errorf("column %s not found", cn)
		}

		cols = append(cols, col)
	}

	return NewDF(cols...)
}

// Reindex returns a copy of df with exactly the fields given, in that order. Fields df
// doesn't have are added as all-null columns of the field's type.
func (df *DF) Reindex(fields ...Field) (*DF, error) {
	var cols []*Col
	for _, f := range fields {
		if col := df.Column(f.Name); col != nil {
			cols = append(cols, col.Copy())
			continue
		}

		cols = append(cols, &Col{name: f.Name, Vector: NullVector(f.DT, df.RowCount())})
	}

	return NewDF(cols...)
}

func (df *DF) Rename(oldName, newName string) error {
	col := df.Column(oldName)
	if col == nil {
		return fmt.Errorf("column %s not found", oldName)
	}

	if oldName == newName {
		return nil
	}

	if df.Column(newName) != nil {
		return fmt.Errorf("column %s already exists, cannot Rename", newName)
	}

	return col.Rename(newName)
}

// Where returns the rows for which indic is true.
func (df *DF) Where(indic []bool) (*DF, error) {
	if len(indic) != df.RowCount() {
		return nil, fmt.Errorf("indicator length %d doesn't match row count %d", len(indic), df.RowCount())
	}

	var cols []*Col
	for h := df.head; h != nil; h = h.next {
		cols = append(cols, &Col{name: h.col.Name(), Vector: h.col.Where(indic)})
	}

	return NewDF(cols...)
}

// Filter returns the rows for which keep is true.
func (df *DF) Filter(keep func(row int) bool) (*DF, error) {
	indic := make([]bool, df.RowCount())
	for row := range indic {
		indic[row] = keep(row)
	}

	return df.Where(indic)
}

// Take returns a DF built from the rows listed, in that order.
func (df *DF) Take(rows []int) *DF {
	out := &DF{}
	for h := df.head; h != nil; h = h.next {
		_ = out.AppendColumn(&Col{name: h.col.Name(), Vector: h.col.Take(rows)}, false)
	}

	return out
}

// DropNulls returns the rows with no null in any column.
func (df *DF) DropNulls() *DF {
	var rows []int
	for row := 0; row < df.RowCount(); row++ {
		complete := true
		for h := df.head; h != nil; h = h.next {
			if h.col.IsNull(row) {
				complete = false
				break
			}
		}

		if complete {
			rows = append(rows, row)
		}
	}

	if rows == nil {
		rows = []int{}
	}

	return df.Take(rows)
}

// Row returns the values of row indx, nil for nulls.
func (df *DF) Row(indx int) []any {
	var row []any
	for h := df.head; h != nil; h = h.next {
		row = append(row, h.col.Element(indx))
	}

	return row
}

func (df *DF) Copy() *DF {
	out := &DF{}
	for h := df.head; h != nil; h = h.next {
		_ = out.AppendColumn(h.col.Copy(), false)
	}

	return out
}

// *********** Sorting ***********

// Sort sorts df in place, ascending, by the columns given. Ties keep their order.
func (df *DF) Sort(cols ...string) error {
	var by []*Col

	for _, cn := range cols {
		x := df.Column(cn)
		if x == nil {
			return fmt.Errorf("sort column %s not found", cn)
		}

		by = append(by, x)
	}

	df.by = by
	sort.Stable(df)
	df.by = nil

	return nil
}

func (df *DF) Len() int {
	return df.RowCount()
}

func (df *DF) Less(i, j int) bool {
	for _, col := range df.by {
		if col.Less(i, j) {
			return true
		}

		if col.Less(j, i) {
			return false
		}

		// equal -- keep checking
	}

	return false
}

func (df *DF) Swap(i, j int) {
	for h := df.head; h != nil; h = h.next {
		h.col.Swap(i, j)
	}
}

func (df *DF) String() string {
	var (
		header []string
		cols   []*Vector
	)

	for h := df.head; h != nil; h = h.next {
		header = append(header, h.col.Name())
		cols = append(cols, h.col.Vector)
	}

	if cols == nil {
		return ""
	}

	return fmt.Sprintf("rows: %d\n", df.RowCount()) + prettyPrint(header, cols...)
}
