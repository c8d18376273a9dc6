package normalizer

import (
	"errors"
	"fmt"

	"accidentes/internal/models"
)

// Validation errors.
var (
	ErrMissingColumn    = errors.New("required column missing")
	ErrRowStillExcluded = errors.New("canonical row carries an exclusion")
	ErrHourOutOfRange   = errors.New("hour out of range")
	ErrDiaNumMismatch   = errors.New("Dia_num does not match Dia")
	ErrMesNumMismatch   = errors.New("Mes_num does not match Mes")
	ErrBandMismatch     = errors.New("grupo_horario does not match Hora_num")
	ErrTooManyHighRisk  = errors.New("more high-risk settlements than configured")
)

// Validator checks the schema before cleaning and the canonical table after it.
type Validator struct {
	topSettlements int
}

// NewValidator creates a new validator instance.
func NewValidator(topSettlements int) *Validator {
	return &Validator{topSettlements: topSettlements}
}

// ValidateHeader checks that every required column is present.
func (v *Validator) ValidateHeader(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	for _, req := range models.RequiredColumns {
		if !present[req] {
			return fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	return nil
}

// ValidateCanonical checks the row invariants of a materialized table.
func (v *Validator) ValidateCanonical(table *models.CanonicalTable) error {
	highRisk := make(map[string]bool)

	for i, rec := range table.Records {
		if rec.Excluded() {
			return fmt.Errorf("%w at index %d: %v", ErrRowStillExcluded, i, rec.Exclusions[0])
		}

		if rec.HoraNum < 0 || rec.HoraNum > 23 {
			return fmt.Errorf("%w at index %d: %d", ErrHourOutOfRange, i, rec.HoraNum)
		}

		if band, _ := TimeBand(rec.HoraNum); band != rec.GrupoHorario {
			return fmt.Errorf("%w at index %d", ErrBandMismatch, i)
		}

		if Ordinal(Weekdays, rec.Fields[models.ColDia]) != rec.DiaNum {
			return fmt.Errorf("%w at index %d", ErrDiaNumMismatch, i)
		}

		if Ordinal(Months, rec.Fields[models.ColMes]) != rec.MesNum {
			return fmt.Errorf("%w at index %d", ErrMesNumMismatch, i)
		}

		if rec.ColoniaAltoRiesgo {
			highRisk[rec.Fields[models.ColAsentamiento]] = true
		}
	}

	if len(highRisk) > v.topSettlements {
		return fmt.Errorf("%w: %d", ErrTooManyHighRisk, len(highRisk))
	}

	return nil
}
