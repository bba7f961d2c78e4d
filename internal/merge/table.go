// Package merge joins raw electricity, weather, and building-metadata files
// into the hourly modeling table.
package merge

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gridsight/energycast/internal/model"
)

// table is a raw tabular input with a header-indexed column lookup.
type table struct {
	header []string
	idx    map[string]int
	rows   [][]string
}

// loadTable reads a CSV or XLSX file into memory. The format is chosen by
// file extension; everything except .xlsx is treated as CSV.
func loadTable(path string) (*table, error) {
	var records [][]string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		records, err = readXLSX(path)
	} else {
		records, err = readCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.Errorf("merge: %s is empty", path)
	}

	header := make([]string, len(records[0]))
	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		header[i] = name
		idx[name] = i
	}
	return &table{header: header, idx: idx, rows: records[1:]}, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // validated per column lookup, not per row

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "merge: read %s", path)
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSX(path string) ([][]string, error) {
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: parse xlsx %s", path)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, eris.Errorf("merge: xlsx %s has no sheets", path)
	}
	sheet := xlFile.Sheets[0]

	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		record := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			record[i] = strings.TrimSpace(cell.String())
		}
		records = append(records, record)
	}
	return records, nil
}

// require returns a schema error naming every missing column, before any
// row is processed.
func (t *table) require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if _, ok := t.idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("merge: missing required column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// get returns the named column of a row, or "" when the row is short.
func (t *table) get(row []string, column string) string {
	i, ok := t.idx[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseTimestamp parses an hourly timestamp in the raw wire format.
// An unparseable timestamp fails the whole merge; it is never skipped.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(model.TimestampLayout, s)
	if err != nil {
		return time.Time{}, eris.Errorf("merge: unparseable timestamp %q (want %s)", s, model.TimestampLayout)
	}
	return t, nil
}
