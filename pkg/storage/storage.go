// Package storage keeps a history of compliance runs in sqlite so fleet
// posture can be compared across report cycles.
package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mfatouaki/patchscope/pkg/compliance"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id                INTEGER PRIMARY KEY,
  ran_at            DATETIME NOT NULL,
  total             INTEGER NOT NULL,
  compliant         INTEGER NOT NULL,
  noncompliant      INTEGER NOT NULL,
  manualcheck       INTEGER NOT NULL,
  compliant_percent REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS verdicts (
  id                INTEGER PRIMARY KEY,
  run_id            INTEGER NOT NULL REFERENCES runs(id),
  device_name       TEXT NOT NULL,
  user_principal    TEXT,
  operating_system  TEXT,
  model             TEXT,
  join_type         TEXT,
  os_version        TEXT,
  os_version_label  TEXT NOT NULL,
  installed_kbs     TEXT,
  installed_release TEXT,
  status            TEXT NOT NULL CHECK (status IN ('Compliant','NonCompliant','ManualCheck')),
  days_unpatched    TEXT,
  required_kbs      TEXT
);
CREATE INDEX IF NOT EXISTS idx_verdicts_run ON verdicts(run_id);
CREATE INDEX IF NOT EXISTS idx_verdicts_device ON verdicts(device_name);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Run is one persisted report cycle.
type Run struct {
	ID               int64
	RanAt            time.Time
	Total            int
	Compliant        int
	NonCompliant     int
	ManualCheck      int
	CompliantPercent float64
}

// SaveRun stores a summary row plus one verdict row per device and returns
// the new run id.
func (d *DB) SaveRun(ctx context.Context, ranAt time.Time, verdicts []compliance.Verdict, sum compliance.Summary) (runID int64, err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs(ran_at, total, compliant, noncompliant, manualcheck, compliant_percent) VALUES(?,?,?,?,?,?)`,
		ranAt.UTC(), sum.Total, sum.Compliant, sum.NonCompliant, sum.ManualCheck, sum.CompliantPercent())
	if err != nil {
		return 0, err
	}
	runID, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, v := range verdicts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO verdicts(run_id, device_name, user_principal, operating_system, model, join_type, os_version, os_version_label, installed_kbs, installed_release, status, days_unpatched, required_kbs)
			 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			runID, v.Device.DeviceName, v.Device.UserPrincipalName, v.Device.OperatingSystem,
			v.Device.Model, v.Device.JoinType, v.Device.OSVersion, v.OSVersionLabel,
			v.InstalledPatchIDs, v.InstalledReleaseDate, string(v.Status), v.DaysUnpatched, v.RequiredPatchIDs)
		if err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns all runs, newest first.
func (d *DB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, ran_at, total, compliant, noncompliant, manualcheck, compliant_percent FROM runs ORDER BY ran_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.RanAt, &r.Total, &r.Compliant, &r.NonCompliant, &r.ManualCheck, &r.CompliantPercent); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// VerdictRow is a stored verdict, flattened.
type VerdictRow struct {
	DeviceName     string
	UserPrincipal  string
	OSVersion      string
	OSVersionLabel string
	Status         string
	DaysUnpatched  string
	RequiredKBs    string
}

// RunVerdicts returns the stored verdicts for one run, in insertion order.
func (d *DB) RunVerdicts(ctx context.Context, runID int64) ([]VerdictRow, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT device_name, user_principal, os_version, os_version_label, status, days_unpatched, required_kbs
		 FROM verdicts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VerdictRow
	for rows.Next() {
		var v VerdictRow
		var upn, osv, days, req sql.NullString
		if err := rows.Scan(&v.DeviceName, &upn, &osv, &v.OSVersionLabel, &v.Status, &days, &req); err != nil {
			return nil, err
		}
		v.UserPrincipal = upn.String
		v.OSVersion = osv.String
		v.DaysUnpatched = days.String
		v.RequiredKBs = req.String
		out = append(out, v)
	}
	return out, rows.Err()
}

// Stats aggregates the stored run history.
type Stats struct {
	Runs           int
	LatestPercent  float64
	AveragePercent float64
}

func (d *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	row := d.sql.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(compliant_percent), 0) FROM runs`)
	if err := row.Scan(&s.Runs, &s.AveragePercent); err != nil {
		return Stats{}, err
	}
	if s.Runs > 0 {
		row = d.sql.QueryRowContext(ctx,
			`SELECT compliant_percent FROM runs ORDER BY ran_at DESC, id DESC LIMIT 1`)
		if err := row.Scan(&s.LatestPercent); err != nil {
			return Stats{}, err
		}
	}
	return s, nil
}
