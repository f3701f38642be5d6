package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ndreport/internal"
	"ndreport/internal/config"
	"ndreport/internal/names"
	"ndreport/internal/table"
)

func mkTable(t *testing.T, columns []string, rows ...[]string) *table.Table {
	t.Helper()
	tbl := table.New(columns...)
	for _, row := range rows {
		values := make([]table.Value, len(row))
		for i, cell := range row {
			values[i] = table.TextValue(cell)
		}
		require.NoError(t, tbl.AppendRow(values...))
	}
	return tbl
}

func keysOf(t *testing.T, tbl *table.Table) []internal.Key {
	t.Helper()
	keyOf, err := DefaultKeyColumns.keyFunc(tbl)
	require.NoError(t, err)
	out := make([]internal.Key, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		out = append(out, keyOf(i))
	}
	return out
}

func cell(t *testing.T, tbl *table.Table, row int, column string) table.Value {
	t.Helper()
	v, err := tbl.Get(row, column)
	require.NoError(t, err)
	return v
}

func testConfig() config.Config {
	return config.Config{
		InputFormat:           "csv",
		NormalizeThresholdPct: names.DefaultThresholdPercent,
		CustomerMatchFields:   []string{"full_name", "name", "assoc"},
		VendorMatchFields:     []string{"assoc_1", "assoc_2", "assoc_other"},
	}
}

func testStopWords(t *testing.T) *names.StopWords {
	t.Helper()
	sw, err := names.NewStopWords([]string{"MR", "MRS", "DR", "AND", "TRUST", "LLC", "INC", "THE", "ESTATE OF"})
	require.NoError(t, err)
	return sw
}

var (
	customerColumns = []string{"number", "vendor_name", "user_name", "first_name", "last_name", "email_address", "name", "assoc"}
	vendorColumns   = []string{"number", "vendor_name", "name", "assoc", "assoc_1", "assoc_2", "assoc_other"}
)
