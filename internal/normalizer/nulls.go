package normalizer

import (
	"slices"

	"accidentes/internal/models"
)

// ColumnCount is a per-column counter kept in column order.
type ColumnCount struct {
	Column string
	Count  int
}

// NullFilter prunes unwanted columns and tags every row holding a missing value.
type NullFilter struct {
	drop  map[string]bool
	nulls map[string]bool
}

// NewNullFilter creates a filter dropping the given columns and treating the
// given tokens as missing values.
func NewNullFilter(dropColumns, nullValues []string) *NullFilter {
	f := &NullFilter{
		drop:  make(map[string]bool, len(dropColumns)),
		nulls: make(map[string]bool, len(nullValues)),
	}

	for _, c := range dropColumns {
		f.drop[c] = true
	}

	for _, v := range nullValues {
		f.nulls[v] = true
	}

	return f
}

// IsNull reports whether a raw value is a missing-value token.
func (f *NullFilter) IsNull(value string) bool {
	return f.nulls[value]
}

// Prune returns the columns that survive, with their positions in the raw
// header, plus the dropped columns that were actually present.
func (f *NullFilter) Prune(header []string) (kept []string, positions []int, dropped []string) {
	for i, col := range header {
		if f.drop[col] {
			dropped = append(dropped, col)

			continue
		}

		kept = append(kept, col)
		positions = append(positions, i)
	}

	return kept, positions, dropped
}

// Apply builds the working table from the raw records. Missing values are not
// stored in Record.Fields and tag the record with ReasonMissingValue. The
// returned counts hold the missing values per column.
func (f *NullFilter) Apply(header []string, records [][]string) (*models.Table, []ColumnCount, []string) {
	columns, positions, dropped := f.Prune(header)

	counts := make([]ColumnCount, len(columns))
	for i, col := range columns {
		counts[i].Column = col
	}

	table := &models.Table{
		Columns: slices.Clone(columns),
		Records: make([]*models.Record, 0, len(records)),
	}

	for source, raw := range records {
		rec := models.NewRecord(source)

		for i, col := range columns {
			pos := positions[i]

			// Short records: trailing fields are missing.
			if pos >= len(raw) {
				counts[i].Count++
				rec.Exclude(models.ReasonMissingValue, col, "")

				continue
			}

			if f.IsNull(raw[pos]) {
				counts[i].Count++
				rec.Exclude(models.ReasonMissingValue, col, raw[pos])

				continue
			}

			rec.Fields[col] = raw[pos]
		}

		table.Records = append(table.Records, rec)
	}

	return table, counts, dropped
}
