// Package normalizer turns the raw accident table into the canonical table.
//
// Cleaning is two-phase. The row stages (null filter, temporal parser, geo
// splitter, categorical encoder) only tag records with exclusion reasons;
// Materialize then drops every tagged record in a single pass. The frequency
// features are computed after that pass, so they always see exactly the rows
// that are written.
package normalizer

import (
	"fmt"

	"accidentes/internal/config"
	"accidentes/internal/models"
)

// Report summarizes what cleaning did to the table.
type Report struct {
	Exclusions          map[models.Reason]int
	Columns             []string
	DroppedColumns      []string
	NullCounts          []ColumnCount
	HighRiskSettlements []string
	KeptAccidentTypes   []string
	SourceRows          int
	ExcludedRows        int
	CanonicalRows       int
}

// RowsWithNulls returns the number of rows dropped by the null filter.
func (r *Report) RowsWithNulls() int {
	return r.Exclusions[models.ReasonMissingValue]
}

// Processor runs the cleaning stages in their fixed order.
type Processor struct {
	nulls     *NullFilter
	temporal  *TemporalParser
	features  *FeatureComputer
	validator *Validator
}

// NewProcessor creates a processor from the cleaning and feature settings.
func NewProcessor(cleaning config.CleaningConfig, features config.FeaturesConfig) *Processor {
	return &Processor{
		nulls:     NewNullFilter(cleaning.DropColumns, cleaning.NullValues),
		temporal:  NewTemporalParser(cleaning.DateLayouts, cleaning.TimeLayouts, cleaning.HoraSentinels),
		features:  NewFeatureComputer(features.TopSettlements, features.AccidentTypeMinCount),
		validator: NewValidator(features.TopSettlements),
	}
}

// Process transforms a raw table into the canonical table.
func (p *Processor) Process(raw *models.RawTable) (*models.CanonicalTable, *Report, error) {
	header, err := NormalizeHeader(raw.Header)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize header: %w", err)
	}

	table, nullCounts, dropped := p.nulls.Apply(header, raw.Records)

	if err := p.validator.ValidateHeader(table.Columns); err != nil {
		return nil, nil, fmt.Errorf("validate header: %w", err)
	}

	for _, rec := range table.Records {
		p.temporal.Apply(rec)
		ApplyGeo(rec)
		ApplyCategorical(rec)
	}

	canonical, exclusions := Materialize(table)

	summary := p.features.Apply(canonical)

	if err := p.validator.ValidateCanonical(canonical); err != nil {
		return nil, nil, fmt.Errorf("validate canonical table: %w", err)
	}

	report := &Report{
		Exclusions:          exclusions,
		Columns:             table.Columns,
		DroppedColumns:      dropped,
		NullCounts:          nullCounts,
		HighRiskSettlements: summary.HighRiskSettlements,
		KeptAccidentTypes:   summary.KeptAccidentTypes,
		SourceRows:          len(raw.Records),
		ExcludedRows:        len(table.Records) - canonical.Len(),
		CanonicalRows:       canonical.Len(),
	}

	return canonical, report, nil
}

// Materialize drops every tagged record. The returned map counts, per reason,
// the rows carrying that reason; a row with several reasons counts under each.
func Materialize(table *models.Table) (*models.CanonicalTable, map[models.Reason]int) {
	canonical := &models.CanonicalTable{SourceColumns: table.Columns}
	counts := make(map[models.Reason]int)

	for _, rec := range table.Records {
		if !rec.Excluded() {
			canonical.Records = append(canonical.Records, rec)

			continue
		}

		seen := make(map[models.Reason]bool, len(rec.Exclusions))
		for _, e := range rec.Exclusions {
			if !seen[e.Reason] {
				seen[e.Reason] = true
				counts[e.Reason]++
			}
		}
	}

	return canonical, counts
}
