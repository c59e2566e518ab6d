package df

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilesRoundTrip(t *testing.T) {
	code := strCol(t, "CodMunIBGE", "1100015", "1100023")
	name := strCol(t, "Município", "Alta Floresta D'Oeste", "Ariquemes, RO")
	pib, _ := NewCol([]float64{12345.6, 0}, DTfloat, ColName("PIB 2010 (R$)"), ColNulls(1))
	pop, _ := NewCol([]int{24392, 90353}, DTint, ColName("Habitantes 2010"))
	df, _ := NewDF(code, name, pib, pop)

	fileName := filepath.Join(t.TempDir(), "CleanData.csv")
	f := NewFiles()
	f.FieldTypes = map[string]DataTypes{"CodMunIBGE": DTstring}
	assert.Nil(t, f.Save(df, fileName))

	back, e := f.Load(fileName)
	assert.Nil(t, e)
	assert.Equal(t, df.ColumnNames(), back.ColumnNames())
	assert.Equal(t, DTstring, back.Column("CodMunIBGE").DataType())
	assert.Equal(t, DTint, back.Column("Habitantes 2010").DataType())
	assert.Equal(t, DTfloat, back.Column("PIB 2010 (R$)").DataType())
	assert.Equal(t, "Ariquemes, RO", back.Column("Município").Element(1))
	assert.Equal(t, 12345.6, back.Column("PIB 2010 (R$)").Element(0))
	assert.True(t, back.Column("PIB 2010 (R$)").IsNull(1))
}

func TestFilesWrite(t *testing.T) {
	df, _ := NewDF(strCol(t, "k", "a"), fltCol(t, "x", 0.1))
	var buf bytes.Buffer
	assert.Nil(t, NewFiles().Write(&buf, df))
	assert.Equal(t, "k,x\na,0.1\n", buf.String())

	f := NewFiles()
	f.FloatFormat = "%.3f"
	buf.Reset()
	assert.Nil(t, f.Write(&buf, df))
	assert.Equal(t, "k,x\na,0.100\n", buf.String())
}

func TestFilesRead(t *testing.T) {
	in := "\xef\xbb\xbfCODE,VALUE (R$),NIVNOME\nRECORRM,1.5,Municípios\nRECORRM,,Estados\n"
	df, e := NewFiles().Read(strings.NewReader(in))
	assert.Nil(t, e)
	assert.Equal(t, []string{"CODE", "VALUE (R$)", "NIVNOME"}, df.ColumnNames())
	assert.Equal(t, 1, df.Column("VALUE (R$)").NullCount())

	_, e = NewFiles().Read(strings.NewReader(""))
	assert.NotNil(t, e)

	f := NewFiles()
	f.FieldTypes = map[string]DataTypes{"VALUE (R$)": DTint}
	_, e = f.Read(strings.NewReader(in))
	assert.NotNil(t, e)
}
