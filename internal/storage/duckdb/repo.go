// Package duckdb implements the analytical store for the population
// pipeline on an embedded DuckDB database, accessed through database/sql.
//
// DuckDB serves two roles here that would otherwise need two systems: it is
// the in-process table the loader appends to (with a composite primary key
// enforcing one row per year and region), and it is the Parquet writer for
// the final partitioned export. Rows are inserted one at a time; the volume
// (a few dozen regions per year) does not justify batching.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// DuckDB driver.
	_ "github.com/marcboeker/go-duckdb/v2"

	"thaipop/internal/parser/population"
)

// Config configures the DuckDB repository.
type Config struct {
	// DSN is passed directly to database/sql. Empty means an in-memory
	// database, which matches the job's lifecycle: the table only needs to
	// outlive the run long enough to be exported.
	DSN string

	// Table is the analytical table name, e.g. "thai_population".
	Table string
}

// Repository is a DuckDB-backed store for population records.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a DuckDB connection and returns a Repository plus a
// Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, nil, fmt.Errorf("duckdb: table must not be empty")
	}

	db, err := sql.Open("duckdb", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("duckdb: open: %w", err)
	}

	// An in-memory database must live on a single connection; otherwise
	// each pooled connection would see its own empty catalog.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("duckdb: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// CreateTable creates (or replaces) the analytical table. The composite
// primary key makes a duplicate (data_year, cc_code) insert a constraint
// error rather than a silent double-count.
func (r *Repository) CreateTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE OR REPLACE TABLE %s (
		data_year INTEGER,
		yymm TEXT,
		cc_code INTEGER,
		cc_desc TEXT,
		rcode_code TEXT,
		rcode_desc TEXT,
		ccaatt_code TEXT,
		ccaatt_desc TEXT,
		ccaattmm_code TEXT,
		ccaattmm_desc TEXT,
		male INTEGER,
		female INTEGER,
		total INTEGER,
		house INTEGER,
		PRIMARY KEY (data_year, cc_code)
	)`, r.cfg.Table)

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("duckdb: create table: %w", err)
	}
	return nil
}

// InsertRecord appends one parsed record for the given fetch year. Each row
// is an independent append; there is no batching or explicit transaction.
func (r *Repository) InsertRecord(ctx context.Context, year int, rec population.Record) error {
	stmt := fmt.Sprintf(
		"INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.cfg.Table,
	)
	_, err := r.db.ExecContext(ctx, stmt,
		year,
		rec.YYMM,
		rec.CCCode,
		rec.CCDesc,
		rec.RcodeCode,
		rec.RcodeDesc,
		rec.CcaattCode,
		rec.CcaattDesc,
		rec.CcaattmmCode,
		rec.CcaattmmDesc,
		rec.Male,
		rec.Female,
		rec.Total,
		rec.House,
	)
	if err != nil {
		return fmt.Errorf("duckdb: insert year=%d cc_code=%d: %w", year, rec.CCCode, err)
	}
	return nil
}

// CountByYear returns the number of loaded rows per data_year, for the
// end-of-run summary.
func (r *Repository) CountByYear(ctx context.Context) (map[int]int64, error) {
	q := fmt.Sprintf("SELECT data_year, COUNT(*) FROM %s GROUP BY data_year ORDER BY data_year", r.cfg.Table)
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("duckdb: count by year: %w", err)
	}
	defer rows.Close()

	out := map[int]int64{}
	for rows.Next() {
		var year int
		var n int64
		if err := rows.Scan(&year, &n); err != nil {
			return nil, fmt.Errorf("duckdb: scan count: %w", err)
		}
		out[year] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("duckdb: count rows: %w", err)
	}
	return out, nil
}
