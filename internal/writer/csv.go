// Package writer persists the canonical table.
package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"accidentes/internal/models"
)

// WriteError reports a persistence failure. The destination is left untouched.
type WriteError struct {
	Err  error
	Path string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Options configures how the table is written.
type Options struct {
	// CreateDirs creates missing parent directories instead of failing.
	CreateDirs bool
}

// CSVWriter writes the canonical table as comma-delimited UTF-8 text with a
// leading unlabeled row-index column.
type CSVWriter struct {
	opts Options
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(opts Options) *CSVWriter {
	return &CSVWriter{opts: opts}
}

// Write replaces the file at path with the table. The data goes to a
// temporary file in the same directory first and is renamed into place, so a
// failed run never leaves a partial table behind.
func (w *CSVWriter) Write(path string, table *models.CanonicalTable) (int64, error) {
	var size int64

	err := atomicWrite(path, w.opts, func(f io.Writer) error {
		counter := &countingWriter{w: f}

		if err := Encode(counter, table); err != nil {
			return err
		}

		size = counter.n

		return nil
	})
	if err != nil {
		return 0, err
	}

	return size, nil
}

// Encode writes the table to out in canonical CSV form.
func Encode(out io.Writer, table *models.CanonicalTable) error {
	cw := csv.NewWriter(out)

	if err := cw.Write(append([]string{""}, table.Header()...)); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, rec := range table.Records {
		row := append([]string{strconv.Itoa(rec.Source)}, rec.Values(table.SourceColumns)...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func atomicWrite(path string, opts Options, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)

	if opts.CreateDirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &WriteError{Path: path, Err: fmt.Errorf("failed to create directory: %w", err)}
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	tmpName := tmp.Name()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return &WriteError{Path: path, Err: err}
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return &WriteError{Path: path, Err: err}
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)

		return &WriteError{Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return &WriteError{Path: path, Err: err}
	}

	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}

// ErrNoIndexColumn is returned when a canonical file lacks the leading index column.
var ErrNoIndexColumn = errors.New("missing leading row-index column")

// CanonicalFile is a canonical table read back from disk.
type CanonicalFile struct {
	Header []string
	Index  []string
	Rows   [][]string
}

// ReadCanonical reads a file produced by CSVWriter. The row-index column is
// split off into Index; Header and Rows hold the canonical columns only.
func ReadCanonical(path string) (*CanonicalFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != "" {
		return nil, fmt.Errorf("read %s: %w", path, ErrNoIndexColumn)
	}

	out := &CanonicalFile{Header: records[0][1:]}

	for _, rec := range records[1:] {
		out.Index = append(out.Index, rec[0])
		out.Rows = append(out.Rows, rec[1:])
	}

	return out, nil
}
