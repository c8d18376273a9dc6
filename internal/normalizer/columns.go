package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// ErrDuplicateColumn is returned when two source columns normalize to the same name.
var ErrDuplicateColumn = errors.New("duplicate column after normalization")

// Only the five lowercase accented vowels are folded; ñ, ü and uppercase
// accents are left alone so column names stay recognizable.
var accentFolder = runes.Map(func(r rune) rune {
	switch r {
	case 'á':
		return 'a'
	case 'é':
		return 'e'
	case 'í':
		return 'i'
	case 'ó':
		return 'o'
	case 'ú':
		return 'u'
	}

	return r
})

// NormalizeColumnName trims the name, replaces spaces with underscores and
// strips accents from vowels. It is idempotent.
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")

	folded, _, err := transform.String(accentFolder, name)
	if err != nil {
		return name
	}

	return folded
}

// NormalizeHeader normalizes every column name of a header.
func NormalizeHeader(header []string) ([]string, error) {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))

	for i, name := range header {
		normalized := NormalizeColumnName(name)
		if prev, ok := seen[normalized]; ok {
			return nil, fmt.Errorf("%w: %q (columns %d and %d)", ErrDuplicateColumn, normalized, prev, i)
		}

		seen[normalized] = i
		out[i] = normalized
	}

	return out, nil
}
