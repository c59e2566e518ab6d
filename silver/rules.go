package silver

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	d "github.com/invertedv/ipea"
)

// MunicipalLevel is the level label of municipality rows in the ipeadata tables.
const MunicipalLevel = "Municípios"

// valuePrefix starts the name of the value column of a time series; the unit follows.
const valuePrefix = "VALUE ("

// Rule is the normalization of one source: keep the rows whose Level column equals
// LevelLabel (and, if OnDate is set, whose DateColumn falls on it), drop the listed
// columns, rename, then convert.
type Rule struct {
	LevelColumn string
	LevelLabel  string

	DateColumn string
	OnDate     time.Time

	Drop   []string
	Rename []Renaming

	// Indicator is the column the rule produces next to the key.
	Indicator string

	// Convert runs after renaming.
	Convert func(tbl *d.DF, log zerolog.Logger) error
}

type Renaming struct {
	From, To string

	// Unit, when set, lets From fall back to the single VALUE (...) column of the table.
	Unit bool
}

// generic is the filter and drop shared by the time series sources.
func generic(valueColumn, indicator string, convert func(*d.DF, zerolog.Logger) error) Rule {
	return Rule{
		LevelColumn: "NIVNOME",
		LevelLabel:  MunicipalLevel,
		Drop:        []string{"CODE", "RAW DATE", "YEAR", "NIVNOME"},
		Rename: []Renaming{
			{From: "TERCODIGO", To: KeyColumn},
			{From: valueColumn, To: indicator, Unit: true},
		},
		Indicator: indicator,
		Convert:   convert,
	}
}

// Rules is the closed set of normalizations, keyed by source.
var Rules = map[SourceID]Rule{
	IDHM: {
		LevelColumn: "uname",
		LevelLabel:  "Municipality",
		DateColumn:  "date",
		OnDate:      time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		Drop:        []string{"code", "uname", "date"},
		Rename: []Renaming{
			{From: "tcode", To: KeyColumn},
			{From: "value", To: HDIColumn},
		},
		Indicator: HDIColumn,
	},
	Municipios: {
		LevelColumn: "LEVEL",
		LevelLabel:  MunicipalLevel,
		Drop:        []string{"LEVEL", "AREA", "CAPITAL"},
		Rename: []Renaming{
			{From: "ID", To: KeyColumn},
			{From: "NAME", To: NameColumn},
		},
		Indicator: NameColumn,
	},
	PIB:         generic("VALUE (R$ (mil), a preços do ano 2010)", GDPColumn, thousandsToUnits),
	Arrecadacao: generic("VALUE (R$)", TaxColumn, nil),
	Populacao:   generic("VALUE (Habitante)", PopColumn, headcount),
}

// fileOrder is the order in which file names are matched against sources.
var fileOrder = []SourceID{IDHM, Municipios, PIB, Arrecadacao, Populacao}

// RuleForFile finds the source whose identifier is part of fileName.
func RuleForFile(fileName string) (SourceID, bool) {
	fileName = norm.NFC.String(fileName)
	for _, id := range fileOrder {
		if strings.Contains(fileName, norm.NFC.String(string(id))) {
			return id, true
		}
	}

	if strings.Contains(fileName, "IDHM") {
		return IDHM, true
	}

	return "", false
}

// thousandsToUnits casts GDP to float and converts thousands of R$ to R$, to 3 decimals.
func thousandsToUnits(tbl *d.DF, _ zerolog.Logger) error {
	col, e := tbl.Column(GDPColumn).Cast(d.DTfloat)
	if e != nil {
		return e
	}

	x, _ := col.AsFloat()
	for ind, xv := range x {
		x[ind] = math.Round(xv*1000*1000) / 1000
	}

	return tbl.AppendColumn(col, true)
}

// headcount casts population to int and the key to string. Either cast may fail, in which
// case the column is kept as it is.
func headcount(tbl *d.DF, log zerolog.Logger) error {
	for _, cast := range []d.Field{{Name: PopColumn, DT: d.DTint}, {Name: KeyColumn, DT: d.DTstring}} {
		col, e := tbl.Column(cast.Name).Cast(cast.DT)
		if e != nil {
			log.Warn().Err(e).Str("column", cast.Name).Msg("cast failed, keeping column as is")
			continue
		}

		if e := tbl.AppendColumn(col, true); e != nil {
			return e
		}
	}

	return nil
}

// sameLabel compares labels in composed normal form.
func sameLabel(a, b string) bool {
	return norm.NFC.String(a) == norm.NFC.String(b)
}

// columnName finds the column of tbl whose name is name, up to Unicode normalization.
func columnName(tbl *d.DF, name string) (string, bool) {
	if tbl.Column(name) != nil {
		return name, true
	}

	for _, cn := range tbl.ColumnNames() {
		if sameLabel(cn, name) {
			return cn, true
		}
	}

	return "", false
}

// unitColumn returns the only column of tbl that holds a unit-labelled value.
func unitColumn(tbl *d.DF) (string, error) {
	var found []string
	for _, cn := range tbl.ColumnNames() {
		if strings.HasPrefix(cn, valuePrefix) {
			found = append(found, cn)
		}
	}

	if len(found) != 1 {
		return "", fmt.Errorf("expected one %s...) column, found %d", valuePrefix, len(found))
	}

	return found[0], nil
}

// onDate reports whether x, a date or a date string, falls on day.
func onDate(x any, day time.Time) bool {
	switch v := x.(type) {
	case time.Time:
		y, m, dd := v.Date()
		return y == day.Year() && m == day.Month() && dd == day.Day()
	case string:
		return strings.HasPrefix(strings.TrimSpace(v), day.Format("2006-01-02"))
	}

	return false
}
