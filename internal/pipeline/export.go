package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"ndreport/internal"
	"ndreport/internal/table"
)

const (
	SheetMatched   = "Matched"
	SheetUnmatched = "Unmatched"
)

// ExportColumn maps a working column to its report header.
type ExportColumn struct {
	Source string
	Header string
}

var UnmatchedColumns = []ExportColumn{
	{Source: "vendor_name", Header: "Vendor Name"},
	{Source: "number", Header: "Number"},
	{Source: "name", Header: "Name"},
	{Source: "assoc", Header: "Associated"},
}

var MatchedColumns = append(append([]ExportColumn{}, UnmatchedColumns...),
	ExportColumn{Source: "email_address", Header: "Email Address"},
	ExportColumn{Source: "first_name", Header: "First Name"},
	ExportColumn{Source: "last_name", Header: "Last Name"},
)

// MatchedOutputFields is the schema CrossMatch trims matched rows to.
func MatchedOutputFields() []string {
	out := make([]string, 0, len(MatchedColumns))
	for _, c := range MatchedColumns {
		out = append(out, c.Source)
	}
	return out
}

// ReportFileName follows report_<SERVER>_<ID>_<YYYYMMDD HHMMSS>.xlsx.
func ReportFileName(server internal.Server, company string, at time.Time) string {
	return fmt.Sprintf("report_%s_%s_%s.xlsx", server, company, at.Format("20060102 150405"))
}

// ExportReport writes the matched and unmatched tables as two sheets of one
// workbook.
func ExportReport(matched, unmatched *table.Table, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetMatched); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetUnmatched); err != nil {
		return err
	}

	writeSheet(f, SheetMatched, matched, MatchedColumns)
	writeSheet(f, SheetUnmatched, unmatched, UnmatchedColumns)
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// writeSheet renders the mapped columns present in t. Mapped columns the
// table lacks are left out.
func writeSheet(f *excelize.File, sheet string, t *table.Table, columns []ExportColumn) {
	type present struct {
		header string
		col    int
	}
	cols := make([]present, 0, len(columns))
	for _, c := range columns {
		if idx, err := t.ColumnIndex(c.Source); err == nil {
			cols = append(cols, present{header: c.Header, col: idx})
		}
	}

	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, c.header)
	}

	for row := 0; row < t.Len(); row++ {
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, row+2)
			_ = f.SetCellValue(sheet, cell, t.At(row, c.col).String())
		}
	}
}
