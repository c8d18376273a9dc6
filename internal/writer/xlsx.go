package writer

import (
	"fmt"
	"io"
	"strconv"

	"accidentes/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the canonical table.
const SheetName = "accidentes"

// XLSXWriter writes a spreadsheet copy of the canonical table for analysts
// who open it by hand. Cells are written as text, same as the CSV.
type XLSXWriter struct {
	opts Options
}

// NewXLSXWriter creates a new spreadsheet writer instance.
func NewXLSXWriter(opts Options) *XLSXWriter {
	return &XLSXWriter{opts: opts}
}

// Write replaces the workbook at path with the table.
func (w *XLSXWriter) Write(path string, table *models.CanonicalTable) error {
	return atomicWrite(path, w.opts, func(out io.Writer) error {
		f := excelize.NewFile()
		defer f.Close()

		if err := f.SetSheetName("Sheet1", SheetName); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}

		sw, err := f.NewStreamWriter(SheetName)
		if err != nil {
			return fmt.Errorf("create stream writer: %w", err)
		}

		header := append([]string{""}, table.Header()...)
		if err := setRow(sw, 1, header); err != nil {
			return err
		}

		for i, rec := range table.Records {
			row := append([]string{strconv.Itoa(rec.Source)}, rec.Values(table.SourceColumns)...)
			if err := setRow(sw, i+2, row); err != nil {
				return err
			}
		}

		if err := sw.Flush(); err != nil {
			return fmt.Errorf("flush stream writer: %w", err)
		}

		if _, err := f.WriteTo(out); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}

		return nil
	})
}

func setRow(sw *excelize.StreamWriter, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	if err := sw.SetRow(cell, row); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}

	return nil
}

// ReadXLSXRows returns every row of the canonical sheet, header included.
func ReadXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetRows(SheetName)
}
