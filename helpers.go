package df

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

func has[C comparable](needle C, haystack []C) bool {
	return position(needle, haystack) >= 0
}

func position[C comparable](needle C, haystack []C) int {
	for ind, straw := range haystack {
		if needle == straw {
			return ind
		}
	}

	return -1
}

// validName checks a column name. Names are free text (spaces, accents and currency
// signs are common in source headers) but can't be empty or hold control characters.
func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty column name")
	}

	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return fmt.Errorf("illegal character in column name %q", name)
	}

	return nil
}

// *********** Printing ***********

const nullString = "NA"

func prettyPrint(header []string, cols ...*Vector) string {
	var colsS [][]string

	for ind := 0; ind < len(cols); ind++ {
		colsS = append(colsS, stringSlice(header[ind], cols[ind]))
	}

	var sb strings.Builder
	for row := 0; row < len(colsS[0]); row++ {
		for c := 0; c < len(colsS); c++ {
			sb.WriteString(colsS[c][row])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func stringSlice(header string, v *Vector) []string {
	const pad = 3
	c := []string{header}

	format := ""
	if v.VectorType() == DTfloat {
		x, _ := v.AsFloat()
		format = selectFormat(x)
	}

	maxLen := len([]rune(header))
	for ind := 0; ind < v.Len(); ind++ {
		el := nullString
		if !v.IsNull(ind) {
			switch v.VectorType() {
			case DTfloat:
				el = fmt.Sprintf(format, v.Element(ind))
			case DTdate:
				el = v.Element(ind).(time.Time).Format("2006-01-02")
			default:
				el = fmt.Sprintf("%v", v.Element(ind))
			}
		}

		if l := len([]rune(el)); l > maxLen {
			maxLen = l
		}

		c = append(c, el)
	}

	numeric := v.VectorType() == DTint || v.VectorType() == DTfloat
	for ind, cx := range c {
		fill := strings.Repeat(" ", maxLen-len([]rune(cx))+pad)
		if numeric {
			c[ind] = fill + cx
			continue
		}

		c[ind] = cx + fill
	}

	return c
}

func selectFormat(x []float64) string {
	if len(x) == 0 {
		return "%.2f"
	}

	minX := math.Abs(x[0])
	maxX := math.Abs(x[0])
	for _, xv := range x {
		xva := math.Abs(xv)
		if xva < minX {
			minX = xva
		}

		if xva > maxX {
			maxX = xva
		}
	}

	rangeX := maxX - minX
	if rangeX == 0 {
		return "%.3f"
	}

	l := math.Log10(rangeX)
	var dp int
	switch {
	case l < -1:
		dp = int(math.Abs(l)+0.5) + 1
	case l > 1:
		dp = 0
	default:
		dp = 3
	}

	return "%." + fmt.Sprintf("%d", dp) + "f"
}
