package erp

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// ExportCSV writes rows under the entity's header and returns how many rows
// were handed to the CSV writer. A flush error still reports every row.
func ExportCSV[T stampable[T]](w io.Writer, e Entity[T], rows []T) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(e.CSVHeader); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		if err := writer.Write(e.CSVRow(r)); err != nil {
			return i, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return len(rows), fmt.Errorf("flush csv: %w", err)
	}
	return len(rows), nil
}

// ReadCSV parses records laid out like ExportCSV output. Only columns that
// are form fields are read; the rest (name, owner, totals) are assigned by the
// server. Rows that cannot be parsed are returned in rowErrs keyed by their
// 1-based data row number.
func ReadCSV[T stampable[T]](r io.Reader, e Entity[T]) (records []T, rowErrs map[int]error, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	known := make(map[string]bool, len(e.Form))
	for _, f := range e.Form {
		known[f.Key] = true
	}
	columns := make(map[int]string)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if known[h] {
			columns[i] = h
		}
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("no importable columns; expected some of %s", formKeys(e.Form))
	}

	rowErrs = make(map[int]error)
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, rowErrs, fmt.Errorf("read row %d: %w", row, err)
		}
		values := make(map[string]string, len(columns))
		blank := true
		for i, key := range columns {
			if i < len(fields) {
				values[key] = fields[i]
				if strings.TrimSpace(fields[i]) != "" {
					blank = false
				}
			}
		}
		if blank {
			continue
		}
		var zero T
		rec, err := e.FromForm(zero, values)
		if err != nil {
			rowErrs[row] = err
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}

func formKeys(fields []FormField) string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return strings.Join(keys, ", ")
}

// ImportReport is the outcome of ImportCSV.
type ImportReport struct {
	Rows        int
	ParseErrors map[int]error
	Result      listcore.BulkResult
}

// Failed counts rows that were not created.
func (r ImportReport) Failed() int {
	return len(r.ParseErrors) + r.Result.FailedCount
}

// ImportCSV reads r and creates every parsed record through the view's
// dispatcher. Validation and permission checks apply per row.
func ImportCSV[T stampable[T]](ctx context.Context, r io.Reader, v *View[T]) (ImportReport, error) {
	records, rowErrs, err := ReadCSV(r, v.Entity)
	report := ImportReport{Rows: len(records) + len(rowErrs), ParseErrors: rowErrs}
	if err != nil {
		return report, err
	}
	if len(records) == 0 {
		return report, nil
	}
	res, err := v.List.BulkCreate(ctx, records)
	report.Result = res
	return report, err
}
