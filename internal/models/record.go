package models

import (
	"strconv"
	"time"
)

// Output layouts for the temporal fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Record is one source row on its way to the canonical table. Fields holds the
// raw text of every non-missing source column; a column absent from Fields was
// a missing value in the source.
type Record struct {
	Fields map[string]string

	Fecha   time.Time
	Hora    time.Time
	HoraNum int

	Latitud  float64
	Longitud float64

	DiaNum int
	MesNum int

	GrupoHorario      string
	EsFinSemana       bool
	ColoniaAltoRiesgo bool
	TipoSimplificado  string

	Exclusions []Exclusion

	// Source is the zero-based position of the row in the fetched table.
	Source int
}

// NewRecord creates a record for the given source position.
func NewRecord(source int) *Record {
	return &Record{
		Fields: make(map[string]string),
		Source: source,
		DiaNum: -1,
		MesNum: -1,
	}
}

// Field returns the raw value of a column and whether it was present.
func (r *Record) Field(column string) (string, bool) {
	v, ok := r.Fields[column]

	return v, ok
}

// Exclude tags the record with an exclusion reason.
func (r *Record) Exclude(reason Reason, column, value string) {
	r.Exclusions = append(r.Exclusions, Exclusion{Reason: reason, Column: column, Value: value})
}

// Excluded reports whether any stage tagged the record.
func (r *Record) Excluded() bool {
	return len(r.Exclusions) > 0
}

// HasReason reports whether the record carries the given reason.
func (r *Record) HasReason(reason Reason) bool {
	for _, e := range r.Exclusions {
		if e.Reason == reason {
			return true
		}
	}

	return false
}

// Values renders the record in CanonicalTable.Header order.
func (r *Record) Values(sourceColumns []string) []string {
	out := make([]string, 0, len(sourceColumns)+len(DerivedColumns))

	for _, col := range sourceColumns {
		switch col {
		case ColFecha:
			out = append(out, r.Fecha.Format(DateLayout))
		case ColHora:
			out = append(out, r.Hora.Format(TimeLayout))
		default:
			out = append(out, r.Fields[col])
		}
	}

	return append(out,
		strconv.Itoa(r.HoraNum),
		formatFloat(r.Latitud),
		formatFloat(r.Longitud),
		strconv.Itoa(r.DiaNum),
		strconv.Itoa(r.MesNum),
		r.GrupoHorario,
		formatFlag(r.EsFinSemana),
		formatFlag(r.ColoniaAltoRiesgo),
		r.TipoSimplificado,
	)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Flags are written as 0/1 so numeric consumers can average them.
func formatFlag(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
