package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ndreport/internal"
	"ndreport/internal/metrics"
	"ndreport/internal/storage"
)

func TestSmokeInputsToReport(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	customers := "number,vendor_name,user_name,first_name,last_name,email_address,name,assoc\n" +
		"1,V1,jsmith,John,Smith,j@x.com,,\n" +
		"2,V1,mjones,Mary,Jones,m@x.com,Jones Family Trust,\n"
	vendors := "number,vendor_name,name,assoc,assoc_1,assoc_2,assoc_other\n" +
		"1,V1,,,John Smith,,\n" +
		"10,V1,Acct Ten,,Mr. John Smith,,\n" +
		"12,V1,Acct Twelve,Other,Nobody Here,,\n"

	cfg := testConfig()
	cfg.ReportsDir = tmp
	writeInput(t, cfg.ReportsDir, internal.InputCustomer, internal.ServerJeff, "7", customers)
	writeInput(t, cfg.ReportsDir, internal.InputVendor, internal.ServerJeff, "7", vendors)

	m := metrics.New()
	svc := NewReportService(cfg, testStopWords(t), db, nil).WithMetrics(m)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := svc.Run(RunRequest{Server: internal.ServerJeff, Company: "7"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.TraceID)
	assert.Equal(t, filepath.Join(tmp, "report_JEFF_7_20260102 030405.xlsx"), res.ReportPath)
	assert.Equal(t, internal.RunCounts{CustomerRows: 2, VendorRows: 3, Orphans: 2, Matched: 1, Unmatched: 1}, res.Counts)

	f, err := excelize.OpenFile(res.ReportPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetMatched)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"V1", "10", "ACCT TEN", "", "J@X.COM", "JOHN", "SMITH"}, rows[1])

	rows, err = f.GetRows(SheetUnmatched)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"V1", "12", "ACCT TWELVE", "OTHER"}, rows[1])

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.TraceID, runs[0].TraceID)
	assert.Equal(t, res.Counts, runs[0].Counts)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LastOrphans.WithLabelValues("JEFF", "7")))
}

func TestSmokeMissingInput(t *testing.T) {
	cfg := testConfig()
	cfg.ReportsDir = t.TempDir()
	writeInput(t, cfg.ReportsDir, internal.InputVendor, internal.ServerProd, "1", "number,vendor_name\n1,V1\n")

	_, err := NewReportService(cfg, testStopWords(t), nil, nil).Run(RunRequest{Server: internal.ServerProd, Company: "1"})
	assert.Error(t, err)
}

func writeInput(t *testing.T, dir string, kind internal.InputKind, server internal.Server, company, content string) {
	t.Helper()
	path := InputPath(dir, kind, server, company, "csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
