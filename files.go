package df

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// All code interacting with files is here

const (
	Sep        = ','
	DateFormat = "2006-01-02"
	// FloatFormat empty writes the shortest representation that reads back exactly
	FloatFormat = ""
	Header      = true
	NullField   = ""
)

// Files reads and writes DFs as delimited text.
type Files struct {
	Sep         rune
	DateFormat  string
	FloatFormat string
	Header      bool
	NullField   string

	// FieldTypes fixes the type of the named fields on read. Other fields get the narrowest type that fits.
	FieldTypes map[string]DataTypes

	file     *os.File
	fileName string
	w        *csv.Writer
}

func NewFiles() *Files {
	f := &Files{
		Sep:         Sep,
		DateFormat:  DateFormat,
		FloatFormat: FloatFormat,
		Header:      Header,
		NullField:   NullField,
	}

	return f
}

func (f *Files) Open(fileName string) error {
	var e error
	f.fileName = fileName
	f.file, e = os.Open(fileName)

	return e
}

func (f *Files) Create(fileName string) error {
	var e error
	f.fileName = fileName
	if f.file, e = os.Create(fileName); e != nil {
		return e
	}

	f.w = f.writer(f.file)

	return nil
}

func (f *Files) FileName() string {
	return f.fileName
}

func (f *Files) Close() error {
	if f.file == nil {
		return fmt.Errorf("no open files")
	}

	if f.w != nil {
		f.w.Flush()
		if e := f.w.Error(); e != nil {
			_ = f.file.Close()
			return e
		}
	}

	e := f.file.Close()
	f.file, f.w = nil, nil

	return e
}

func (f *Files) WriteHeader(fieldNames []string) error {
	if !f.Header {
		return nil
	}

	if f.w == nil {
		return fmt.Errorf("no file open for writing")
	}

	return f.w.Write(fieldNames)
}

// WriteLine writes one record. nil values are written as NullField.
func (f *Files) WriteLine(v []any) error {
	if f.w == nil {
		return fmt.Errorf("no file open for writing")
	}

	return f.w.Write(f.format(v))
}

// Save writes df to fileName.
func (f *Files) Save(df *DF, fileName string) error {
	if e := f.Create(fileName); e != nil {
		return e
	}

	if e := f.writeDF(df); e != nil {
		_ = f.Close()
		return e
	}

	return f.Close()
}

// Write writes df to w.
func (f *Files) Write(w io.Writer, df *DF) error {
	f.w = f.writer(w)
	defer func() { f.w = nil }()

	if e := f.writeDF(df); e != nil {
		return e
	}

	f.w.Flush()

	return f.w.Error()
}

// Load reads fileName into a DF.
func (f *Files) Load(fileName string) (*DF, error) {
	if e := f.Open(fileName); e != nil {
		return nil, e
	}
	defer func() { _ = f.file.Close(); f.file = nil }()

	return f.Read(f.file)
}

// Read reads delimited text into a DF. Empty fields are nulls.
func (f *Files) Read(r io.Reader) (*DF, error) {
	rdr := csv.NewReader(r)
	rdr.Comma = f.Sep

	var (
		records [][]string
		e       error
	)
	if records, e = rdr.ReadAll(); e != nil {
		return nil, e
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no data in %s", f.fileName)
	}

	var names []string
	if f.Header {
		names, records = records[0], records[1:]
	} else {
		for ind := range records[0] {
			names = append(names, fmt.Sprintf("V%d", ind+1))
		}
	}

	// a UTF-8 BOM ends up glued to the first header
	if len(names) > 0 && len(names[0]) >= 3 && names[0][:3] == "\xef\xbb\xbf" {
		names[0] = names[0][3:]
	}

	var cols []*Col
	for c, name := range names {
		raw := make([]string, len(records))
		for row, rec := range records {
			if c < len(rec) {
				raw[row] = rec[c]
			}
		}

		var col *Col
		if col, e = f.column(name, raw); e != nil {
			return nil, e
		}

		cols = append(cols, col)
	}

	return NewDF(cols...)
}

func (f *Files) column(name string, raw []string) (*Col, error) {
	dt, ok := f.FieldTypes[name]
	if !ok {
		dt = bestType(f.nonNull(raw))
	}

	v := MakeVector(dt, len(raw))
	for row, x := range raw {
		if x == f.NullField {
			v.SetNull(row)
			continue
		}

		val, ok := toDataType(x, dt)
		if !ok {
			return nil, fmt.Errorf("field %s row %d: cannot read %q as %s", name, row+1, x, dt)
		}

		switch dt {
		case DTfloat:
			v.data.([]float64)[row] = val.(float64)
		case DTint:
			v.data.([]int)[row] = val.(int)
		case DTstring:
			v.data.([]string)[row] = val.(string)
		case DTdate:
			v.data.([]time.Time)[row] = val.(time.Time)
		}
	}

	return NewCol(v, dt, ColName(name))
}

func (f *Files) nonNull(raw []string) []string {
	var out []string
	for _, x := range raw {
		if x != f.NullField {
			out = append(out, x)
		}
	}

	return out
}

func (f *Files) writeDF(df *DF) error {
	if e := f.WriteHeader(df.ColumnNames()); e != nil {
		return e
	}

	for row := 0; row < df.RowCount(); row++ {
		if e := f.WriteLine(df.Row(row)); e != nil {
			return e
		}
	}

	return nil
}

func (f *Files) writer(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = f.Sep

	return cw
}

func (f *Files) format(v []any) []string {
	line := make([]string, len(v))
	for ind := 0; ind < len(v); ind++ {
		switch d := v[ind].(type) {
		case nil:
			line[ind] = f.NullField
		case float64:
			if f.FloatFormat == "" {
				line[ind] = strconv.FormatFloat(d, 'f', -1, 64)
				continue
			}

			line[ind] = fmt.Sprintf(f.FloatFormat, d)
		case int:
			line[ind] = strconv.Itoa(d)
		case time.Time:
			line[ind] = d.Format(f.DateFormat)
		case string:
			line[ind] = d
		default:
			line[ind] = fmt.Sprintf("%v", d)
		}
	}

	return line
}
