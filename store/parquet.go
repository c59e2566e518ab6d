package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	d "github.com/invertedv/ipea"
)

var notIdent = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Parquet writes each table as a snappy compressed .parquet file next to its CSV.
type Parquet struct {
	files *Files
}

func NewParquet(files *Files) *Parquet {
	return &Parquet{files: files}
}

func (p *Parquet) Save(_ context.Context, tbl *d.DF, tier Tier, name string) error {
	fileName, e := p.files.Path(tier, ParquetName(name))
	if e != nil {
		return e
	}

	body, e := EncodeParquet(tbl)
	if e != nil {
		return fmt.Errorf("parquet %s: %w", name, e)
	}

	if e = os.MkdirAll(filepath.Dir(fileName), 0o755); e != nil {
		return e
	}

	return os.WriteFile(fileName, body, 0o644)
}

// ParquetName replaces the extension of name with .parquet.
func ParquetName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".parquet"
}

// EncodeParquet returns tbl as a parquet file. Column names are reduced to ASCII
// identifiers: "PIB 2010 (R$)" is stored as PIB_2010_R.
func EncodeParquet(tbl *d.DF) ([]byte, error) {
	names := tbl.ColumnNames()
	fields := make([]string, len(names))
	seen := make(map[string]bool)
	for ind, nm := range names {
		fields[ind] = FieldName(nm)
		if seen[fields[ind]] {
			return nil, fmt.Errorf("columns collide as parquet field %s", fields[ind])
		}

		seen[fields[ind]] = true
	}

	schema, e := parquetSchema(tbl, fields)
	if e != nil {
		return nil, e
	}

	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, e := writer.NewJSONWriter(schema, pfw, 4)
	if e != nil {
		return nil, e
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for row := 0; row < tbl.RowCount(); row++ {
		rec := make(map[string]any, len(fields))
		for ind, v := range tbl.Row(row) {
			if dt, ok := v.(time.Time); ok {
				v = dt.Format(d.DateFormat)
			}

			rec[fields[ind]] = v
		}

		line, e := json.Marshal(rec)
		if e != nil {
			_ = pw.WriteStop()
			return nil, e
		}

		if e = pw.Write(string(line)); e != nil {
			_ = pw.WriteStop()
			return nil, fmt.Errorf("row %d: %w", row, e)
		}
	}

	if e = pw.WriteStop(); e != nil {
		return nil, e
	}
	_ = pfw.Close()

	return buf.Bytes(), nil
}

// FieldName strips accents and replaces runs of anything but letters and digits with "_".
func FieldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, e := transform.String(t, name)
	if e != nil {
		ascii = name
	}

	out := strings.Trim(notIdent.ReplaceAllString(ascii, "_"), "_")
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "c_" + out
	}

	return out
}

func parquetSchema(tbl *d.DF, fields []string) (string, error) {
	var tags []map[string]string
	for ind, nm := range tbl.ColumnNames() {
		var typ string
		switch tbl.Column(nm).DataType() {
		case d.DTfloat:
			typ = "type=DOUBLE"
		case d.DTint:
			typ = "type=INT64"
		case d.DTstring, d.DTdate:
			typ = "type=BYTE_ARRAY, convertedtype=UTF8"
		default:
			return "", fmt.Errorf("no parquet type for column %s", nm)
		}

		tags = append(tags, map[string]string{"Tag": fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", fields[ind], typ)})
	}

	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": tags,
	}
	b, e := json.Marshal(out)

	return string(b), e
}
