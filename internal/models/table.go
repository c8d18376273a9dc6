// Package models defines the tables and records that flow through the cleaning pipeline.
package models

// Canonical column names. Downstream analyses read these exact names from the
// persisted CSV, so renaming any of them is a breaking change.
const (
	ColFecha        = "Fecha"
	ColHora         = "Hora"
	ColDia          = "Dia"
	ColMes          = "Mes"
	ColGeo          = "Georreferencia"
	ColAsentamiento = "Nombre_de_asentamiento"
	ColTipo         = "Tipo_de_accidente"

	ColHoraNum           = "Hora_num"
	ColLatitud           = "Latitud"
	ColLongitud          = "Longitud"
	ColDiaNum            = "Dia_num"
	ColMesNum            = "Mes_num"
	ColGrupoHorario      = "grupo_horario"
	ColEsFinSemana       = "es_fin_semana"
	ColColoniaAltoRiesgo = "colonia_alto_riesgo"
	ColTipoSimplificado  = "Tipo_simplificado"
)

// RequiredColumns must be present in the normalized source header.
var RequiredColumns = []string{
	ColFecha,
	ColHora,
	ColDia,
	ColMes,
	ColGeo,
	ColAsentamiento,
	ColTipo,
}

// DerivedColumns are appended after the source columns, in this order.
var DerivedColumns = []string{
	ColHoraNum,
	ColLatitud,
	ColLongitud,
	ColDiaNum,
	ColMesNum,
	ColGrupoHorario,
	ColEsFinSemana,
	ColColoniaAltoRiesgo,
	ColTipoSimplificado,
}

// RawTable is the delimited text exactly as fetched: a header row and
// untyped records keyed positionally by that header.
type RawTable struct {
	Header  []string
	Records [][]string
}

// Table is the working table owned by the pipeline for the duration of a run.
// Columns holds the normalized, pruned source columns in source order.
type Table struct {
	Columns []string
	Records []*Record
}

// CanonicalTable is the materialized result: only records without exclusions,
// with every derived feature populated.
type CanonicalTable struct {
	SourceColumns []string
	Records       []*Record
}

// Header returns the output column order (without the row-index column).
func (t *CanonicalTable) Header() []string {
	header := make([]string, 0, len(t.SourceColumns)+len(DerivedColumns))
	header = append(header, t.SourceColumns...)

	return append(header, DerivedColumns...)
}

// Len returns the number of canonical records.
func (t *CanonicalTable) Len() int {
	return len(t.Records)
}
