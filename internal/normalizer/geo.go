package normalizer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"accidentes/internal/models"
)

// GeoSeparator splits the combined "lat, lon" field.
const GeoSeparator = ", "

// Georreferencia errors.
var (
	ErrGeoTokenCount = errors.New("expected exactly two coordinates")
	ErrGeoNotNumeric = errors.New("coordinate is not a finite number")
)

// SplitGeo parses a "lat, lon" value into its two coordinates.
func SplitGeo(value string) (lat, lon float64, err error) {
	parts := strings.Split(value, GeoSeparator)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: got %d", ErrGeoTokenCount, len(parts))
	}

	lat, err = parseCoordinate(parts[0])
	if err != nil {
		return 0, 0, err
	}

	lon, err = parseCoordinate(parts[1])
	if err != nil {
		return 0, 0, err
	}

	return lat, lon, nil
}

func parseCoordinate(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrGeoNotNumeric, s)
	}

	return f, nil
}

// ApplyGeo fills Latitud and Longitud, tagging the record on failure.
func ApplyGeo(rec *models.Record) {
	v, ok := rec.Field(models.ColGeo)
	if !ok {
		return
	}

	lat, lon, err := SplitGeo(v)
	if err != nil {
		rec.Exclude(models.ReasonInvalidGeo, models.ColGeo, v)

		return
	}

	rec.Latitud = lat
	rec.Longitud = lon
}
