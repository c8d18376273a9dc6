package fetcher

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"accidentes/internal/models"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode validates body as UTF-8 and strips a leading byte order mark.
func Decode(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", &DecodeError{Offset: firstInvalid(body), Err: ErrInvalidUTF8}
	}

	text, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), body)
	if err != nil {
		return "", &DecodeError{Err: err}
	}

	return string(text), nil
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}

		i += size
	}

	return len(b)
}

// Parse reads comma-delimited text with a header row. Records shorter than the
// header are kept as-is (their trailing fields count as missing); longer
// records are malformed.
func Parse(text string) (*models.RawTable, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: ErrEmptyTable}
	}

	if err != nil {
		return nil, wrapCSVError(err)
	}

	table := &models.RawTable{Header: header}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, wrapCSVError(err)
		}

		if len(record) > len(header) {
			line, _ := r.FieldPos(0)

			return nil, &ParseError{Line: line, Err: ErrTooManyFields}
		}

		table.Records = append(table.Records, record)
	}

	return table, nil
}

func wrapCSVError(err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Line: csvErr.Line, Err: csvErr.Err}
	}

	return &ParseError{Err: err}
}
