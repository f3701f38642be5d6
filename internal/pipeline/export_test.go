package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ndreport/internal"
	"ndreport/internal/table"
)

func TestReportFileName(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "report_PROD_42_20260304 050607.xlsx", ReportFileName(internal.ServerProd, "42", at))
}

func TestExportReport(t *testing.T) {
	matched := table.New(MatchedOutputFields()...)
	require.NoError(t, matched.AppendRow(
		txt("V2"), txt("10"), txt(""), txt(""), txt("J@X.COM"), txt("JOHN"), pair("JOHN", "SMITH"),
	))
	unmatched := mkTable(t, vendorColumns,
		[]string{"12", "V1", "SOMEONE", "ELSE", "NOBODY HERE", "", ""},
	)

	out := filepath.Join(t.TempDir(), "reports", "report.xlsx")
	require.NoError(t, ExportReport(matched, unmatched, out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetMatched, SheetUnmatched}, f.GetSheetList())

	rows, err := f.GetRows(SheetMatched)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Vendor Name", "Number", "Name", "Associated", "Email Address", "First Name", "Last Name"}, rows[0])
	assert.Equal(t, "V2", rows[1][0])
	assert.Equal(t, "10", rows[1][1])
	assert.Equal(t, "J@X.COM", rows[1][4])
	assert.Equal(t, "JOHN SMITH", rows[1][6])

	rows, err = f.GetRows(SheetUnmatched)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Vendor Name", "Number", "Name", "Associated"}, rows[0])
	assert.Equal(t, []string{"V1", "12", "SOMEONE", "ELSE"}, rows[1])
}

func TestExportReportEmptyTables(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, ExportReport(table.New(MatchedOutputFields()...), table.New(vendorColumns...), out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetUnmatched)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Vendor Name", rows[0][0])
}
