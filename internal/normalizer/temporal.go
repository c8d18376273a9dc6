package normalizer

import (
	"errors"
	"strings"
	"time"

	"accidentes/internal/models"
)

// ErrNoLayoutMatched is returned when a value matches none of the layouts.
var ErrNoLayoutMatched = errors.New("value matches no layout")

// TemporalParser turns Fecha into a calendar date and Hora into a time of day.
type TemporalParser struct {
	sentinels   map[string]bool
	dateLayouts []string
	timeLayouts []string
}

// NewTemporalParser creates a parser. Sentinels are compared case-sensitively.
func NewTemporalParser(dateLayouts, timeLayouts, horaSentinels []string) *TemporalParser {
	p := &TemporalParser{
		sentinels:   make(map[string]bool, len(horaSentinels)),
		dateLayouts: dateLayouts,
		timeLayouts: timeLayouts,
	}

	for _, s := range horaSentinels {
		p.sentinels[s] = true
	}

	return p
}

// ParseDate returns the calendar date of value, at midnight UTC.
func (p *TemporalParser) ParseDate(value string) (time.Time, error) {
	t, err := parseFirst(p.dateLayouts, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseTime returns the time of day of value on the zero date.
func (p *TemporalParser) ParseTime(value string) (time.Time, error) {
	t, err := parseFirst(p.timeLayouts, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// IsSentinel reports whether a raw Hora value marks missing data.
func (p *TemporalParser) IsSentinel(value string) bool {
	return p.sentinels[value]
}

// Apply parses the temporal fields of a record. A sentinel Hora is excluded
// before the time parser sees it.
func (p *TemporalParser) Apply(rec *models.Record) {
	if v, ok := rec.Field(models.ColFecha); ok {
		date, err := p.ParseDate(v)
		if err != nil {
			rec.Exclude(models.ReasonInvalidFecha, models.ColFecha, v)
		} else {
			rec.Fecha = date
		}
	}

	v, ok := rec.Field(models.ColHora)
	if !ok {
		return
	}

	if p.IsSentinel(v) {
		rec.Exclude(models.ReasonHoraSentinel, models.ColHora, v)

		return
	}

	clock, err := p.ParseTime(v)
	if err != nil {
		rec.Exclude(models.ReasonInvalidHora, models.ColHora, v)

		return
	}

	rec.Hora = clock
	rec.HoraNum = clock.Hour()
}

func parseFirst(layouts []string, value string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, ErrNoLayoutMatched
}
