package df

import "fmt"

// suffixes added to clashing non-key column names by LeftJoin
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// LeftJoin joins right onto left on the key column, which must be DTstring in both.
// Every row of left is kept, once per matching right row. A left row without a match gets
// nulls in right's columns. Null keys never match. Non-key columns that appear in both
// tables are suffixed with LeftSuffix and RightSuffix.
func LeftJoin(left, right *DF, key string) (*DF, error) {
	var lKey, rKey *Col
	if lKey = left.Column(key); lKey == nil {
		return nil, fmt.Errorf("join key %s not in left table", key)
	}

	if rKey = right.Column(key); rKey == nil {
		return nil, fmt.Errorf("join key %s not in right table", key)
	}

	if lKey.DataType() != DTstring || rKey.DataType() != DTstring {
		return nil, fmt.Errorf("join key %s must be %s, got %s and %s", key, DTstring, lKey.DataType(), rKey.DataType())
	}

	lVals, _ := lKey.AsString()
	rVals, _ := rKey.AsString()

	index := make(map[string][]int)
	for row, k := range rVals {
		if rKey.IsNull(row) {
			continue
		}

		index[k] = append(index[k], row)
	}

	var lRows, rRows []int
	for row, k := range lVals {
		matches := index[k]
		if lKey.IsNull(row) || len(matches) == 0 {
			lRows = append(lRows, row)
			rRows = append(rRows, -1)
			continue
		}

		for _, m := range matches {
			lRows = append(lRows, row)
			rRows = append(rRows, m)
		}
	}

	if lRows == nil {
		lRows, rRows = []int{}, []int{}
	}

	leftNames, rightNames := left.ColumnNames(), right.ColumnNames()
	clash := func(name string, others []string) bool {
		return name != key && has(name, others)
	}

	out := &DF{}
	for h := left.head; h != nil; h = h.next {
		name := h.col.Name()
		if clash(name, rightNames) {
			name += LeftSuffix
		}

		if e := out.AppendColumn(&Col{name: name, Vector: h.col.Take(lRows)}, false); e != nil {
			return nil, e
		}
	}

	for h := right.head; h != nil; h = h.next {
		name := h.col.Name()
		if name == key {
			continue
		}

		if clash(name, leftNames) {
			name += RightSuffix
		}

		if e := out.AppendColumn(&Col{name: name, Vector: h.col.Take(rRows)}, false); e != nil {
			return nil, e
		}
	}

	return out, nil
}
