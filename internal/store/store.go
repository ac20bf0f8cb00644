// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists merged specimen tables in SQLite. Each normalize
// run is stored with its rows and per-source reports, plus a YAML manifest
// under runs/.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ukentomology/internal/normalize"
	"github.com/pdiddy/ukentomology/internal/report"
	"github.com/pdiddy/ukentomology/pkg/types"
)

const (
	dbFile  = "ukentomology.db"
	runsDir = "runs"

	// timeFormat has a fixed width so created_at sorts as text.
	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"
)

// Sentinel errors for errors.Is checks.
var (
	ErrNoRuns      = errors.New("no stored runs")
	ErrRunNotFound = errors.New("run not found")
)

// sqlColumns maps canonical column names to specimens table columns.
var sqlColumns = map[string]string{
	types.ColInstitution:    "institution",
	types.ColID:             "id",
	types.ColOrder:          `"order"`,
	types.ColFamily:         "family",
	types.ColGenus:          "genus",
	types.ColScientificName: "scientific_name",
	types.ColCountryOrigin:  "country_origin",
	types.ColDescription:    "description",
}

// Store manages the dataset SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
	now     func() time.Time
}

// RunInfo describes one stored run.
type RunInfo struct {
	ID        string              `json:"id" yaml:"id"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
	Policy    types.FailurePolicy `json:"policy" yaml:"policy"`
	Rows      int                 `json:"rows" yaml:"rows"`
}

// Manifest is the YAML document written next to the database for each run.
type Manifest struct {
	RunInfo `yaml:",inline"`

	Columns []string                 `json:"columns" yaml:"columns"`
	Reports []normalize.SourceReport `json:"reports" yaml:"reports"`
}

// Open opens or creates the database at cfg.DataDir/ukentomology.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = types.DefaultDataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dataDir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ManifestPath returns the manifest file for run id.
func (s *Store) ManifestPath(id string) string {
	return filepath.Join(s.dataDir, runsDir, id+".yaml")
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			policy TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			report_yaml TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS specimens (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			institution TEXT NOT NULL,
			id TEXT,
			"order" TEXT,
			family TEXT,
			genus TEXT,
			scientific_name TEXT,
			country_origin TEXT,
			description TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_specimens_family ON specimens(run_id, family)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun stores res under a new run id in one transaction and writes its
// manifest. Rows keep their merged order.
func (s *Store) SaveRun(ctx context.Context, res normalize.Result, policy types.FailurePolicy) (RunInfo, error) {
	if !res.Table.HasCanonicalColumns() {
		return RunInfo{}, &normalize.SchemaMismatchError{Left: res.Table.Columns, Right: types.Columns(), Reason: "refusing to store non-canonical table"}
	}
	if policy == "" {
		policy = types.PolicyPartial
	}

	info := RunInfo{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Policy:    policy,
		Rows:      res.Table.Len(),
	}
	manifest, err := yaml.Marshal(Manifest{RunInfo: info, Columns: res.Table.Columns, Reports: res.Reports})
	if err != nil {
		return RunInfo{}, fmt.Errorf("marshaling manifest: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunInfo{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, policy, row_count, report_yaml) VALUES (?, ?, ?, ?, ?)`,
		info.ID, info.CreatedAt.Format(timeFormat), string(info.Policy), info.Rows, string(manifest),
	); err != nil {
		return RunInfo{}, fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO specimens (run_id, position, institution, id, "order", family, genus, scientific_name, country_origin, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return RunInfo{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range res.Table.Rows {
		if _, err := stmt.ExecContext(ctx,
			info.ID, i, string(r.Institution), r.ID, r.Order, r.Family,
			r.Genus, r.ScientificName, r.CountryOrigin, r.Description,
		); err != nil {
			return RunInfo{}, fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return RunInfo{}, fmt.Errorf("committing run: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(s.dataDir, runsDir), 0o755); err != nil {
		return info, fmt.Errorf("creating runs directory: %w", err)
	}
	if err := os.WriteFile(s.ManifestPath(info.ID), manifest, 0o644); err != nil {
		return info, fmt.Errorf("writing manifest: %w", err)
	}
	return info, nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, policy, row_count FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		info, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Latest returns the most recent run.
func (s *Store) Latest(ctx context.Context) (RunInfo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, policy, row_count FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	info, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, ErrNoRuns
	}
	return info, err
}

// Manifest returns the stored manifest of run id.
func (s *Store) Manifest(ctx context.Context, id string) (Manifest, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT report_yaml FROM runs WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return Manifest{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal([]byte(doc), &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// Table loads the rows of run id in their stored order.
func (s *Store) Table(ctx context.Context, id string) (types.Table, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs WHERE id = ?`, id).Scan(&exists); err != nil {
		return types.Table{}, fmt.Errorf("looking up run: %w", err)
	}
	if exists == 0 {
		return types.Table{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT institution, id, "order", family, genus, scientific_name, country_origin, description
		 FROM specimens WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return types.Table{}, fmt.Errorf("querying specimens: %w", err)
	}
	defer rows.Close()

	t := types.NewTable()
	for rows.Next() {
		var inst string
		var r types.Specimen
		if err := rows.Scan(&inst, &r.ID, &r.Order, &r.Family, &r.Genus,
			&r.ScientificName, &r.CountryOrigin, &r.Description); err != nil {
			return types.Table{}, fmt.Errorf("scanning specimen: %w", err)
		}
		r.Institution = types.Institution(inst)
		t.Rows = append(t.Rows, r)
	}
	return t, rows.Err()
}

// LatestTable loads the rows of the most recent run.
func (s *Store) LatestTable(ctx context.Context) (RunInfo, types.Table, error) {
	info, err := s.Latest(ctx)
	if err != nil {
		return RunInfo{}, types.Table{}, err
	}
	t, err := s.Table(ctx, info.ID)
	return info, t, err
}

// CountBy groups the rows of run id by a canonical column, ordered by count
// descending then value.
func (s *Store) CountBy(ctx context.Context, id, column string) ([]report.Count, error) {
	col, ok := sqlColumns[column]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+col+` AS value, count(*) AS n FROM specimens WHERE run_id = ?
		 GROUP BY value ORDER BY n DESC, value ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("counting by %s: %w", column, err)
	}
	defer rows.Close()

	var out []report.Count
	for rows.Next() {
		var c report.Count
		if err := rows.Scan(&c.Value, &c.N); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunInfo, error) {
	var info RunInfo
	var created, policy string
	if err := sc.Scan(&info.ID, &created, &policy, &info.Rows); err != nil {
		return RunInfo{}, err
	}
	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return RunInfo{}, fmt.Errorf("parsing run timestamp %q: %w", created, err)
	}
	info.CreatedAt = t
	info.Policy = types.FailurePolicy(policy)
	return info, nil
}
