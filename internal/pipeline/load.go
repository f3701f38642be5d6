package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ndreport/internal"
	"ndreport/internal/table"
)

// InputPath is the file a loader reads for one side of a run, e.g.
// customer_data_PROD_42_.csv.
func InputPath(dir string, kind internal.InputKind, server internal.Server, company, format string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s_.%s", kind, server, company, format))
}

// LoadTable reads a CSV or XLSX file whose first row is the header. Header
// names are lower-cased; cells are trimmed and upper-cased and blanks are
// kept as empty text.
func LoadTable(path string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open file %s: %w", path, err)
		}
		defer f.Close()
		t, err := parseCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return t, nil
	case ".xlsx":
		blob, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		t, err := parseXLSX(blob)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported input type: %s", path)
	}
}

func loadTableAsync(path string) (<-chan *table.Table, <-chan error) {
	resultCh := make(chan *table.Table, 1)
	errCh := make(chan error, 1)

	go func() {
		t, err := LoadTable(path)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- t
	}()

	return resultCh, errCh
}

func parseCSV(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}
	t, err := newInputTable(header)
	if err != nil {
		return nil, err
	}

	for rowIndex := 1; ; rowIndex++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV at row %d: %w", rowIndex, err)
		}
		appendInputRow(t, record)
	}
	return t, nil
}

func parseXLSX(content []byte) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	t, err := newInputTable(rows[0])
	if err != nil {
		return nil, err
	}
	for _, row := range rows[1:] {
		appendInputRow(t, row)
	}
	return t, nil
}

func newInputTable(header []string) (*table.Table, error) {
	columns := make([]string, 0, len(header))
	seen := map[string]struct{}{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate column %q in header", name)
		}
		seen[name] = struct{}{}
		columns = append(columns, name)
	}
	return table.New(columns...), nil
}

// appendInputRow adds a prepared row. Short rows are padded with blanks,
// extra cells are dropped and all-blank rows are skipped.
func appendInputRow(t *table.Table, record []string) {
	n := len(t.Columns())
	values := make([]table.Value, n)
	blank := true
	for j := 0; j < n; j++ {
		cell := ""
		if j < len(record) {
			cell = prepareCell(record[j])
		}
		if cell != "" {
			blank = false
		}
		values[j] = table.TextValue(cell)
	}
	if blank {
		return
	}
	_ = t.AppendRow(values...)
}

func prepareCell(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
