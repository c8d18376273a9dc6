package normalizer

import (
	"sort"
	"strings"

	"accidentes/internal/models"
)

// Time-of-day bands.
const (
	BandMadrugada = "madrugada"
	BandManana    = "mañana"
	BandTarde     = "tarde"
	BandNoche     = "noche"
)

// OtherAccidentType replaces accident types at or below the frequency threshold.
const OtherAccidentType = "otro"

// TimeBand maps an hour in [0,23] to its band over [0,6,12,18,24).
func TimeBand(hour int) (string, bool) {
	switch {
	case hour < 0 || hour > 23:
		return "", false
	case hour < 6:
		return BandMadrugada, true
	case hour < 12:
		return BandManana, true
	case hour < 18:
		return BandTarde, true
	default:
		return BandNoche, true
	}
}

// IsWeekend reports whether a Dia value is Saturday or Sunday.
func IsWeekend(dia string) bool {
	return dia == "Sabado" || dia == "Domingo"
}

// NormalizeAccidentType lowercases and trims an accident type.
func NormalizeAccidentType(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

// Frequency is a value and how often it occurs.
type Frequency struct {
	Value string
	Count int
}

// Frequencies counts values, most frequent first. Ties keep first-seen order.
func Frequencies(values []string) []Frequency {
	index := make(map[string]int)

	var freqs []Frequency

	for _, v := range values {
		if i, ok := index[v]; ok {
			freqs[i].Count++

			continue
		}

		index[v] = len(freqs)
		freqs = append(freqs, Frequency{Value: v, Count: 1})
	}

	sort.SliceStable(freqs, func(i, j int) bool {
		return freqs[i].Count > freqs[j].Count
	})

	return freqs
}

// TopN returns the n most frequent values.
func TopN(values []string, n int) []string {
	freqs := Frequencies(values)
	if len(freqs) > n {
		freqs = freqs[:n]
	}

	top := make([]string, len(freqs))
	for i, f := range freqs {
		top[i] = f.Value
	}

	return top
}

// FeatureComputer derives the frequency and calendar features. It must run on
// the materialized table: frequencies are computed over exactly the rows that
// reach the output.
type FeatureComputer struct {
	topSettlements int
	minTypeCount   int
}

// NewFeatureComputer creates a computer with the given thresholds.
func NewFeatureComputer(topSettlements, minTypeCount int) *FeatureComputer {
	return &FeatureComputer{
		topSettlements: topSettlements,
		minTypeCount:   minTypeCount,
	}
}

// FeatureSummary lists the values selected by the frequency features.
type FeatureSummary struct {
	HighRiskSettlements []string
	KeptAccidentTypes   []string
}

// Apply fills the derived columns of every record in place.
func (c *FeatureComputer) Apply(table *models.CanonicalTable) FeatureSummary {
	settlements := make([]string, len(table.Records))
	types := make([]string, len(table.Records))

	for i, rec := range table.Records {
		rec.GrupoHorario, _ = TimeBand(rec.HoraNum)
		rec.EsFinSemana = IsWeekend(rec.Fields[models.ColDia])

		settlements[i] = rec.Fields[models.ColAsentamiento]

		tipo := NormalizeAccidentType(rec.Fields[models.ColTipo])
		rec.Fields[models.ColTipo] = tipo
		types[i] = tipo
	}

	var summary FeatureSummary

	summary.HighRiskSettlements = TopN(settlements, c.topSettlements)

	highRisk := make(map[string]bool, len(summary.HighRiskSettlements))
	for _, s := range summary.HighRiskSettlements {
		highRisk[s] = true
	}

	kept := make(map[string]bool)

	for _, f := range Frequencies(types) {
		if f.Count > c.minTypeCount {
			kept[f.Value] = true
			summary.KeptAccidentTypes = append(summary.KeptAccidentTypes, f.Value)
		}
	}

	for i, rec := range table.Records {
		rec.ColoniaAltoRiesgo = highRisk[settlements[i]]

		if kept[types[i]] {
			rec.TipoSimplificado = types[i]
		} else {
			rec.TipoSimplificado = OtherAccidentType
		}
	}

	return summary
}
