package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ndreport/internal"
)

// DB records one row per report run. Match results themselves are never
// stored; each run recomputes them from its inputs.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  server TEXT NOT NULL,
  company TEXT NOT NULL,
  reportPath TEXT NOT NULL,
  customerRows INTEGER NOT NULL,
  vendorRows INTEGER NOT NULL,
  orphans INTEGER NOT NULL,
  matched INTEGER NOT NULL,
  unmatched INTEGER NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_server_company ON runs(server, company);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(run internal.RunRecord) error {
	timingsJSON, _ := json.Marshal(run.TimingsMs)
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, server, company, reportPath, customerRows, vendorRows, orphans, matched, unmatched, timingsJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.TraceID, run.Server, run.Company, run.ReportPath,
		run.Counts.CustomerRows, run.Counts.VendorRows, run.Counts.Orphans, run.Counts.Matched, run.Counts.Unmatched,
		string(timingsJSON))
	return err
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, server, company, reportPath, customerRows, vendorRows, orphans, matched, unmatched, timingsJson, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var run internal.RunRecord
		var timingsJSON string
		if err := rows.Scan(
			&run.ID, &run.TraceID, &run.Server, &run.Company, &run.ReportPath,
			&run.Counts.CustomerRows, &run.Counts.VendorRows, &run.Counts.Orphans, &run.Counts.Matched, &run.Counts.Unmatched,
			&timingsJSON, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(timingsJSON), &run.TimingsMs)
		out = append(out, run)
	}
	return out, rows.Err()
}

// LatestRunAt returns when the last report for server and company was
// recorded. ok is false when there is none.
func (d *DB) LatestRunAt(server, company string) (at time.Time, ok bool, err error) {
	var createdAt string
	err = d.conn.QueryRow(`
SELECT createdAt FROM runs WHERE server = ? AND company = ? ORDER BY id DESC LIMIT 1
`, server, company).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err = time.ParseInLocation(time.DateTime, createdAt, time.UTC)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}
