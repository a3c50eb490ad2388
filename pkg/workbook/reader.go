package workbook

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/riskdesk/ews-console/pkg/apperrors"
)

// Sheet is one worksheet decoded into raw rows: an ordered sequence of
// header→cell mappings plus the discovered header set, in source order.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []map[string]string
}

// Read decodes a spreadsheet buffer into its worksheets. The format is picked
// from the filename extension: .csv goes through the CSV reader (one sheet),
// .xls through the legacy BIFF reader, everything else through excelize. An
// undecodable buffer yields a ParseError and no partial result.
func Read(r io.Reader, filename string) ([]Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &apperrors.ParseError{Source: filename, Err: err}
	}
	if len(data) == 0 {
		return nil, &apperrors.ParseError{Source: filename, Err: errors.New("empty file")}
	}

	ext := filepath.Ext(filename)
	if strings.EqualFold(ext, ".csv") {
		sheet, err := readCSV(data, filename)
		if err != nil {
			return nil, err
		}
		return []Sheet{sheet}, nil
	}
	if strings.EqualFold(ext, ".xls") {
		return readLegacyWorkbook(data, filename)
	}

	return readWorkbook(data, filename)
}

func readWorkbook(data []byte, filename string) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &apperrors.ParseError{Source: filename, Err: err}
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &apperrors.ParseError{Source: filename, Err: err}
		}
		sheets = append(sheets, buildSheet(name, rows))
	}

	if len(sheets) == 0 {
		return nil, &apperrors.ParseError{Source: filename, Err: errors.New("workbook has no sheets")}
	}
	return sheets, nil
}

// readLegacyWorkbook decodes the pre-OOXML binary .xls format, which excelize
// does not read. Cells come back as display strings; dates in them go through
// the same text normalization as CSV cells.
func readLegacyWorkbook(data []byte, filename string) ([]Sheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &apperrors.ParseError{Source: filename, Err: err}
	}

	var sheets []Sheet
	for i := 0; i < wb.GetNumberSheets(); i++ {
		s, err := wb.GetSheet(i)
		if err != nil {
			return nil, &apperrors.ParseError{Source: filename, Err: err}
		}

		var rows [][]string
		for j := 0; j <= s.GetNumberRows(); j++ {
			r, err := s.GetRow(j)
			if err != nil {
				continue
			}
			var cells []string
			for _, c := range r.GetCols() {
				cells = append(cells, c.GetString())
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, buildSheet(s.GetName(), rows))
	}

	if len(sheets) == 0 {
		return nil, &apperrors.ParseError{Source: filename, Err: errors.New("workbook has no sheets")}
	}
	return sheets, nil
}

func readCSV(data []byte, filename string) (Sheet, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are common in exported logs

	records, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, &apperrors.ParseError{Source: filename, Err: err}
	}

	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return buildSheet(name, records), nil
}

// buildSheet interprets the first non-empty row as the header row and maps
// every following row onto it. Cells past the header width are dropped;
// missing trailing cells read as empty strings.
func buildSheet(name string, rows [][]string) Sheet {
	sheet := Sheet{Name: name}

	start := -1
	for i, row := range rows {
		if !rowEmpty(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return sheet
	}

	for _, h := range rows[start] {
		sheet.Headers = append(sheet.Headers, strings.TrimSpace(h))
	}

	for _, row := range rows[start+1:] {
		if rowEmpty(row) {
			continue
		}
		mapped := make(map[string]string, len(sheet.Headers))
		for i, header := range sheet.Headers {
			if header == "" {
				continue
			}
			if i < len(row) {
				mapped[header] = row[i]
			} else {
				mapped[header] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, mapped)
	}

	return sheet
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
