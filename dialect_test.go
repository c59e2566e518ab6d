package df

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateSQL(t *testing.T) {
	df, _ := NewDF(strCol(t, "CodMunIBGE", "1"), fltCol(t, "PIB 2010 (R$)", 1))

	d, e := NewDialect("ClickHouse", nil)
	assert.Nil(t, e)
	s, e := d.CreateSQL("ipea.gold", "", df)
	assert.Nil(t, e)
	assert.Equal(t, `CREATE TABLE ipea.gold ("CodMunIBGE" String, "PIB 2010 (R$)" Float64) ENGINE = MergeTree() ORDER BY ("CodMunIBGE")`, s)

	d, e = NewDialect("postgres", nil)
	assert.Nil(t, e)
	s, e = d.CreateSQL("gold", "CodMunIBGE", df)
	assert.Nil(t, e)
	assert.Equal(t, `CREATE TABLE gold ("CodMunIBGE" text, "PIB 2010 (R$)" double precision)`, s)

	_, e = d.CreateSQL("gold; drop table x", "", df)
	assert.NotNil(t, e)
	_, e = d.CreateSQL("gold", "nope", df)
	assert.NotNil(t, e)

	_, e = NewDialect("mysql", nil)
	assert.NotNil(t, e)
}

func TestInsertSQL(t *testing.T) {
	d, _ := NewDialect("postgres", nil)
	s, e := d.InsertSQL("gold", []string{"a", "b c"})
	assert.Nil(t, e)
	assert.Equal(t, `INSERT INTO gold ("a", "b c") VALUES ($1, $2)`, s)

	d, _ = NewDialect("clickhouse", nil)
	s, e = d.InsertSQL("gold", []string{"a"})
	assert.Nil(t, e)
	assert.Equal(t, `INSERT INTO gold ("a") VALUES (?)`, s)

	_, e = d.InsertSQL("gold", []string{`a"b`})
	assert.NotNil(t, e)
}
