package duckdb

import (
	"context"
	"fmt"
	"os"
)

// ExportPartitions writes the whole table to dir as gzip-compressed Parquet
// files in Hive partition layout, one data_year=<value> subdirectory per
// distinct year. OVERWRITE_OR_IGNORE preserves partition files that already
// exist from earlier runs. The directory tree is created if absent.
func (r *Repository) ExportPartitions(ctx context.Context, dir string) error {
	if dir == "" {
		return fmt.Errorf("duckdb: export dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("duckdb: create export dir: %w", err)
	}

	stmt := fmt.Sprintf(`COPY %s TO '%s' (
		FORMAT PARQUET,
		PARTITION_BY (data_year),
		OVERWRITE_OR_IGNORE,
		COMPRESSION GZIP,
		FILE_EXTENSION 'parquet.gz'
	)`, r.cfg.Table, dir)

	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("duckdb: export partitions: %w", err)
	}
	return nil
}
