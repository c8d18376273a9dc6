package normalizer

import (
	"slices"

	"accidentes/internal/models"
)

// Weekdays in ordinal order, spelled as the source spells them (no accents).
var Weekdays = []string{"Lunes", "Martes", "Miercoles", "Jueves", "Viernes", "Sabado", "Domingo"}

// Months in ordinal order.
var Months = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Ordinal returns the zero-based position of value in categories, or -1.
// Comparison is exact.
func Ordinal(categories []string, value string) int {
	return slices.Index(categories, value)
}

// ApplyCategorical encodes Dia and Mes, tagging unknown values.
func ApplyCategorical(rec *models.Record) {
	if v, ok := rec.Field(models.ColDia); ok {
		rec.DiaNum = Ordinal(Weekdays, v)
		if rec.DiaNum < 0 {
			rec.Exclude(models.ReasonUnknownDia, models.ColDia, v)
		}
	}

	if v, ok := rec.Field(models.ColMes); ok {
		rec.MesNum = Ordinal(Months, v)
		if rec.MesNum < 0 {
			rec.Exclude(models.ReasonUnknownMes, models.ColMes, v)
		}
	}
}
