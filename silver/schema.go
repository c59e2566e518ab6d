package silver

import d "github.com/invertedv/ipea"

// Canonical column names.
const (
	KeyColumn    = "CodMunIBGE"
	NameColumn   = "Município"
	PopColumn    = "Habitantes 2010"
	HDIColumn    = "IDHM 2010"
	GDPColumn    = "PIB 2010 (R$)"
	TaxColumn    = "Receitas Correntes 2010 (R$)"
	BurdenColumn = "Carga Tributária Municipal 2010"
)

// SourceID identifies a raw source. Its value is the base name of the source's tier files.
type SourceID string

const (
	PIB         SourceID = "PIB_2010"
	Arrecadacao SourceID = "Arrecadação_2010"
	Populacao   SourceID = "População_2010"
	Municipios  SourceID = "Municípios"
	IDHM        SourceID = "IDHM_2010"
)

// FileName is the name of the source's file in every tier.
func (id SourceID) FileName() string {
	return string(id) + ".csv"
}

// Sourced are the canonical columns some source supplies, in output order.
var Sourced = []d.Field{
	{Name: KeyColumn, DT: d.DTstring},
	{Name: NameColumn, DT: d.DTstring},
	{Name: PopColumn, DT: d.DTint},
	{Name: HDIColumn, DT: d.DTfloat},
	{Name: GDPColumn, DT: d.DTfloat},
	{Name: TaxColumn, DT: d.DTfloat},
}
