package models

import "fmt"

// Reason tags why a row cannot enter the canonical table.
type Reason string

// Exclusion reasons, one per row invariant.
const (
	ReasonMissingValue Reason = "missing_value"
	ReasonInvalidFecha Reason = "invalid_fecha"
	ReasonHoraSentinel Reason = "hora_sentinel"
	ReasonInvalidHora  Reason = "invalid_hora"
	ReasonInvalidGeo   Reason = "invalid_georreferencia"
	ReasonUnknownDia   Reason = "unknown_dia"
	ReasonUnknownMes   Reason = "unknown_mes"
)

// Reasons lists every reason in report order.
var Reasons = []Reason{
	ReasonMissingValue,
	ReasonInvalidFecha,
	ReasonHoraSentinel,
	ReasonInvalidHora,
	ReasonInvalidGeo,
	ReasonUnknownDia,
	ReasonUnknownMes,
}

// Exclusion is a row invariant violation. It is row-local: the record is
// dropped when the table is materialized, the run continues.
type Exclusion struct {
	Reason Reason
	Column string
	Value  string
}

func (e Exclusion) Error() string {
	return fmt.Sprintf("row invariant violated: %s (column %s, value %q)", e.Reason, e.Column, e.Value)
}
