package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		rows     [][]string
		expected string
	}{
		{
			name:    "Basic table",
			headers: []string{"Header 1", "Header 2"},
			rows:    [][]string{{"val 1", "val 2"}},
			expected: `| Header 1 | Header 2 |
| -------- | -------- |
| val 1    | val 2    |
`,
		},
		{
			name:    "Minimum separator width",
			headers: []string{"H1", "H2"},
			rows:    [][]string{{"v1", "v2"}},
			expected: `| H1  | H2  |
| --- | --- |
| v1  | v2  |
`,
		},
		{
			name:    "Accented cells use display width",
			headers: []string{"Banda", "Filas"},
			rows:    [][]string{{"mañana", "12"}, {"noche", "3"}},
			expected: `| Banda  | Filas |
| ------ | ----- |
| mañana | 12    |
| noche  | 3     |
`,
		},
		{
			name:    "Mixed CJK and ASCII",
			headers: []string{"Col", "Note"},
			rows:    [][]string{{"a", "消防處"}, {"b", "Short"}},
			expected: `| Col | Note   |
| --- | ------ |
| a   | 消防處 |
| b   | Short  |
`,
		},
		{
			name:    "Short rows are padded",
			headers: []string{"Motivo", "Filas"},
			rows:    [][]string{{"invalid_geo"}},
			expected: `| Motivo      | Filas |
| ----------- | ----- |
| invalid_geo |       |
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Table(tt.headers, tt.rows))
		})
	}
}

func TestTable_Empty(t *testing.T) {
	assert.Empty(t, Table(nil, nil))
}
